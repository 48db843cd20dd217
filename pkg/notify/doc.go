// Package notify defines the user-visible notification surface shared by the
// request pipeline and the navigation guard.
//
// This package defines the core abstractions:
//   - Notification: one alert with a level, a title, a description and a bounded duration
//   - Dispatcher: synchronous fan-out of notifications to a sink (terminal, browser, test recorder)
//
// Dispatch is called at well-defined points by its callers, so the number and
// order of notifications produced by one request or one navigation attempt is
// deterministic. A Dispatcher must never block on a slow consumer.
//
// Example usage:
//
//	d := notify.Multi(terminal, broadcaster)
//	d.Dispatch(notify.New(notify.LevelError, "Validation failed", "name is required", 3*time.Second))
package notify
