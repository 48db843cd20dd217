package navigation

import (
	"context"
	"sync"

	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

// Navigator tracks the current location of one client session.
type Navigator struct {
	guard *Guard
	env   navigation.Env

	mu      sync.RWMutex
	current navigation.Location
}

// NewNavigator creates a navigator for one session.
func NewNavigator(guard *Guard, env navigation.Env) *Navigator {
	return &Navigator{guard: guard, env: env}
}

// Push navigates to path. On success the current location becomes the
// decision's target, which is the login route when the attempt was refused.
func (n *Navigator) Push(ctx context.Context, path string) (navigation.Decision, error) {
	return n.guard.Navigate(ctx, n.env, path, func(_ context.Context, d navigation.Decision) error {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.current = d.Target
		return nil
	})
}

// Current returns the current location. It is zero before the first
// successful Push.
func (n *Navigator) Current() navigation.Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}
