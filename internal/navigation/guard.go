// Package navigation runs navigation attempts through the authentication
// guard and adapts the guard to net/http.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// Default texts and durations
const (
	DefaultLoadingText    = "Page loading..."
	DefaultLoginRequired  = "Please log in first"
	DefaultNoticeDuration = 3 * time.Second
)

var (
	// ErrGuardPanic is returned when a collaborator panics during an attempt
	ErrGuardPanic = errors.New("navigation guard panicked")
	// ErrMissingCollaborator is returned when the Env lacks a gate or loader
	ErrMissingCollaborator = errors.New("navigation env is incomplete")
)

// Observer receives the outcome of every navigation attempt.
type Observer interface {
	ObserveNavigation(outcome string, duration time.Duration)
}

// Config configures a Guard.
type Config struct {
	Table  *navigation.Table
	Logger *slog.Logger

	// LoadingText is shown while an attempt is in flight
	LoadingText string
	// LoginRequiredText is the error shown when a guarded route is refused
	LoginRequiredText string
	// NoticeDuration is how long the refusal stays visible
	NoticeDuration time.Duration

	Observer Observer
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.LoadingText == "" {
		c.LoadingText = DefaultLoadingText
	}
	if c.LoginRequiredText == "" {
		c.LoginRequiredText = DefaultLoginRequired
	}
	if c.NoticeDuration == 0 {
		c.NoticeDuration = DefaultNoticeDuration
	}
}

// Guard decides every navigation attempt against the route table and the
// session's logged-in flag. It is stateless between attempts and safe for
// concurrent use.
type Guard struct {
	config Config
}

// NewGuard creates a guard over config.Table.
func NewGuard(config Config) (*Guard, error) {
	if config.Table == nil {
		return nil, fmt.Errorf("route table is required")
	}
	config.SetDefaults()
	return &Guard{config: config}, nil
}

// Table returns the guard's route table.
func (g *Guard) Table() *navigation.Table {
	return g.config.Table
}

// LoginRequired returns a fresh copy of the notification shown when a
// guarded route is refused.
func (g *Guard) LoginRequired() notify.Notification {
	return notify.New(notify.LevelError, g.config.LoginRequiredText, "", g.config.NoticeDuration)
}

// Navigate runs one attempt to reach to.
//
// The loading indicator is shown first and released exactly once, after
// commit has run, on every path: success, refusal, lookup or gate failure,
// commit failure and panic. A refused attempt dispatches one error
// notification and commits a redirect to the login route. commit is not
// called when no decision could be made. http.ErrAbortHandler panics are
// re-raised once the indicator is released.
func (g *Guard) Navigate(ctx context.Context, env navigation.Env, to string, commit navigation.Committer) (decision navigation.Decision, err error) {
	if env.Gate == nil || env.Loader == nil {
		return navigation.Decision{}, ErrMissingCollaborator
	}
	notifier := notify.OrDiscard(env.Notifier)
	start := time.Now()

	decision = navigation.Decision{Requested: to, Trace: []navigation.State{navigation.StateEnter}}
	token := env.Loader.Show(ctx, g.config.LoadingText)
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("%w: %v", ErrGuardPanic, r)
		}
		if token != nil {
			token.Release()
		}
		decision.Trace = append(decision.Trace, navigation.StateDone)
		g.observe(decision, err, start)
		if r == http.ErrAbortHandler {
			panic(r)
		}
	}()

	decision.Trace = append(decision.Trace, navigation.StateDeciding)
	target, err := g.config.Table.Resolve(to)
	if err != nil {
		return decision, err
	}

	if target.Meta.RequiresAuth {
		loggedIn, err := env.Gate.IsLoggedIn(ctx)
		if err != nil {
			return decision, fmt.Errorf("failed to check login state: %w", err)
		}
		if !loggedIn {
			login, err := g.config.Table.Resolve(g.config.Table.LoginPath())
			if err != nil {
				return decision, err
			}
			notifier.Dispatch(g.LoginRequired())
			decision.Target = login
			decision.Outcome = navigation.OutcomeRedirect
			decision.Trace = append(decision.Trace, navigation.StateRedirect)
			g.config.Logger.Debug("navigation refused", "requested", to, "redirect", login.Path)
			return decision, g.commit(ctx, commit, decision)
		}
	}

	decision.Target = target
	decision.Outcome = navigation.OutcomeProceed
	decision.Trace = append(decision.Trace, navigation.StateProceed)
	g.config.Logger.Debug("navigation allowed", "requested", to, "path", target.Path, "route", target.Name)
	return decision, g.commit(ctx, commit, decision)
}

func (g *Guard) commit(ctx context.Context, commit navigation.Committer, decision navigation.Decision) error {
	if commit == nil {
		return nil
	}
	if err := commit(ctx, decision); err != nil {
		return fmt.Errorf("failed to commit navigation to %s: %w", decision.Target.Path, err)
	}
	return nil
}

func (g *Guard) observe(decision navigation.Decision, err error, start time.Time) {
	outcome := string(decision.Outcome)
	if err != nil {
		outcome = "error"
		g.config.Logger.Warn("navigation failed", "requested", decision.Requested, "error", err)
	}
	if g.config.Observer != nil {
		g.config.Observer.ObserveNavigation(outcome, time.Since(start))
	}
}
