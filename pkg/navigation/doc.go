// Package navigation provides the route table and the interfaces used to gate
// navigation between console pages.
//
// This package defines the core abstractions for the navigation guard:
//   - Table: the ordered, immutable route table with per-route metadata
//   - AuthGate: the durable "logged in" flag, re-read on every navigation decision
//   - Loader/Token: a loading indicator acquired on entry and released exactly once
//   - Decision: the outcome (proceed or redirect) of one navigation attempt
//
// A navigation attempt moves through Enter -> Deciding -> {Redirect, Proceed} -> Done.
// When the target route requires authentication and the AuthGate reports the
// session as logged out, the attempt is redirected to the table's login route.
//
// Example usage:
//
//	table, err := navigation.NewTable("/login", navigation.DefaultRoutes()...)
//	if err != nil {
//		return err
//	}
//	loc, err := table.Resolve("/template-edit/42")
//	if err != nil {
//		return err
//	}
//	fmt.Println(loc.Name, loc.Params["componentId"], loc.Meta.RequiresAuth)
package navigation
