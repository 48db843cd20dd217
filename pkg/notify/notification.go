package notify

import (
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification for presentation.
type Level string

const (
	// LevelInfo is a transient informational message (e.g. "request in progress")
	LevelInfo Level = "info"
	// LevelSuccess confirms a completed request
	LevelSuccess Level = "success"
	// LevelError reports a failure; one is emitted per field error
	LevelError Level = "error"
	// LevelLoading marks an in-flight operation; it stays visible until dismissed
	LevelLoading Level = "loading"
)

// Notification is a single user-visible alert.
type Notification struct {
	ID          string        `json:"id"`
	Level       Level         `json:"level"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Duration    time.Duration `json:"duration"` // 0 keeps the alert until Dismiss
	CreatedAt   time.Time     `json:"createdAt"`
}

// New creates a notification with a fresh ID.
func New(level Level, title, description string, duration time.Duration) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Level:       level,
		Title:       title,
		Description: description,
		Duration:    duration,
		CreatedAt:   time.Now(),
	}
}

// Sticky reports whether the notification stays visible until dismissed.
func (n Notification) Sticky() bool {
	return n.Duration <= 0
}
