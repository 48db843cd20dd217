package navigation

import (
	"context"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// LoggedInKey is the fixed name of the persisted "logged in" flag.
const LoggedInKey = "isLoggedIn"

// AuthGate exposes the durable logged-in flag.
//
// Implementations must not cache: IsLoggedIn reads the persisted value every
// time, and SetLoggedIn writes through before returning so that any subsequent
// IsLoggedIn call observes the change.
type AuthGate interface {
	IsLoggedIn(ctx context.Context) (bool, error)
	SetLoggedIn(ctx context.Context, loggedIn bool) error
}

// Token is the handle for one shown loading indicator.
type Token interface {
	// ID identifies the indicator instance
	ID() string

	// Release hides the indicator. Only the first call has an effect.
	Release()
}

// Loader shows loading indicators. Show should return a non-nil Token; a
// nil Token is treated as an indicator with nothing to release.
type Loader interface {
	Show(ctx context.Context, text string) Token
}

// Env bundles the per-session collaborators a navigation attempt consults.
type Env struct {
	Gate     AuthGate
	Loader   Loader
	Notifier notify.Dispatcher
}

// Committer applies a navigation decision (render the page, redirect the
// browser, update the current location). It runs before the loading indicator
// is released.
type Committer func(ctx context.Context, decision Decision) error
