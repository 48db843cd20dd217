package navigation

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/railconsole/internal/authgate"
	"github.com/rmacdonaldsmith/railconsole/internal/loading"
	consolenotify "github.com/rmacdonaldsmith/railconsole/internal/notify"
	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

type countingGate struct {
	navigation.AuthGate
	reads  atomic.Int32
	writes atomic.Int32
	err    error
}

func (g *countingGate) IsLoggedIn(ctx context.Context) (bool, error) {
	g.reads.Add(1)
	if g.err != nil {
		return false, g.err
	}
	return g.AuthGate.IsLoggedIn(ctx)
}

func (g *countingGate) SetLoggedIn(ctx context.Context, v bool) error {
	g.writes.Add(1)
	return g.AuthGate.SetLoggedIn(ctx, v)
}

type fixture struct {
	guard    *Guard
	gate     *countingGate
	loader   *loading.Indicator
	recorder *consolenotify.Recorder
	env      navigation.Env
}

func newFixture(t *testing.T, loggedIn bool) *fixture {
	t.Helper()
	table, err := navigation.NewTable("/login", navigation.DefaultRoutes()...)
	require.NoError(t, err)
	guard, err := NewGuard(Config{Table: table})
	require.NoError(t, err)

	gate := &countingGate{AuthGate: authgate.NewStoreGate(authgate.NewMemoryStore())}
	require.NoError(t, gate.AuthGate.SetLoggedIn(context.Background(), loggedIn))

	rec := consolenotify.NewRecorder()
	loader := loading.New(rec)
	return &fixture{
		guard:    guard,
		gate:     gate,
		loader:   loader,
		recorder: rec,
		env:      navigation.Env{Gate: gate, Loader: loader, Notifier: rec},
	}
}

// commitWhileLoading checks the indicator is still shown when the decision is committed.
func (f *fixture) commitWhileLoading(t *testing.T, got *navigation.Decision) navigation.Committer {
	return func(_ context.Context, d navigation.Decision) error {
		assert.Equal(t, int64(1), f.loader.Outstanding(), "indicator released before commit")
		*got = d
		return nil
	}
}

func TestGuard_GuardedWhileLoggedOut(t *testing.T) {
	f := newFixture(t, false)

	var committed navigation.Decision
	decision, err := f.guard.Navigate(context.Background(), f.env, "/railway-train-manage", f.commitWhileLoading(t, &committed))
	require.NoError(t, err)

	assert.True(t, decision.Redirected())
	assert.Equal(t, "/login", decision.Target.Path)
	assert.Equal(t, "/railway-train-manage", decision.Requested)
	assert.Equal(t, decision.Target, committed.Target)
	assert.Equal(t, []navigation.State{
		navigation.StateEnter, navigation.StateDeciding, navigation.StateRedirect, navigation.StateDone,
	}, decision.Trace)

	errs := f.recorder.ByLevel(notify.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Please log in first", errs[0].Title)

	loadings := f.recorder.ByLevel(notify.LevelLoading)
	require.Len(t, loadings, 1)
	assert.Equal(t, "Page loading...", loadings[0].Title)
	assert.Equal(t, []string{loadings[0].ID}, f.recorder.Dismissed())
	assert.Equal(t, int64(0), f.loader.Outstanding())
	assert.Equal(t, int32(0), f.gate.writes.Load())
}

func TestGuard_Proceed(t *testing.T) {
	t.Run("guarded_while_logged_in", func(t *testing.T) {
		f := newFixture(t, true)

		var committed navigation.Decision
		decision, err := f.guard.Navigate(context.Background(), f.env, "/template-edit/42", f.commitWhileLoading(t, &committed))
		require.NoError(t, err)

		assert.Equal(t, navigation.OutcomeProceed, decision.Outcome)
		assert.Equal(t, "/template-edit/42", decision.Target.Path)
		assert.Equal(t, map[string]string{"componentId": "42"}, decision.Target.Params)
		assert.Equal(t, []navigation.State{
			navigation.StateEnter, navigation.StateDeciding, navigation.StateProceed, navigation.StateDone,
		}, decision.Trace)
		assert.Empty(t, f.recorder.ByLevel(notify.LevelError))
		assert.Equal(t, int64(0), f.loader.Outstanding())
	})

	t.Run("unguarded_skips_gate", func(t *testing.T) {
		f := newFixture(t, false)

		decision, err := f.guard.Navigate(context.Background(), f.env, "/login", nil)
		require.NoError(t, err)
		assert.Equal(t, navigation.OutcomeProceed, decision.Outcome)
		assert.Equal(t, int32(0), f.gate.reads.Load())
		assert.Len(t, f.recorder.ByLevel(notify.LevelLoading), 1)
		assert.Equal(t, int64(0), f.loader.Outstanding())
	})

	t.Run("root_redirect_rule", func(t *testing.T) {
		f := newFixture(t, true)

		decision, err := f.guard.Navigate(context.Background(), f.env, "/", nil)
		require.NoError(t, err)
		assert.Equal(t, navigation.OutcomeProceed, decision.Outcome)
		assert.Equal(t, "/component-manage", decision.Target.Path)
	})

	t.Run("gate_read_every_attempt", func(t *testing.T) {
		f := newFixture(t, true)

		for i := 0; i < 3; i++ {
			_, err := f.guard.Navigate(context.Background(), f.env, "/component-manage", nil)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(3), f.gate.reads.Load())

		// logout takes effect on the very next attempt
		require.NoError(t, f.gate.SetLoggedIn(context.Background(), false))
		decision, err := f.guard.Navigate(context.Background(), f.env, "/component-manage", nil)
		require.NoError(t, err)
		assert.True(t, decision.Redirected())
	})
}

func TestGuard_ReleasesOnEveryPath(t *testing.T) {
	commitErr := errors.New("render failed")

	tests := []struct {
		name    string
		to      string
		gateErr error
		commit  navigation.Committer
		wantErr error
	}{
		{name: "unknown_route", to: "/nowhere", wantErr: navigation.ErrRouteNotFound},
		{name: "gate_failure", to: "/component-manage", gateErr: errors.New("storage unavailable")},
		{
			name:    "commit_failure",
			to:      "/component-manage",
			commit:  func(context.Context, navigation.Decision) error { return commitErr },
			wantErr: commitErr,
		},
		{
			name:    "commit_panic",
			to:      "/component-manage",
			commit:  func(context.Context, navigation.Decision) error { panic("boom") },
			wantErr: ErrGuardPanic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.gate.err = tt.gateErr

			decision, err := f.guard.Navigate(context.Background(), f.env, tt.to, tt.commit)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.gateErr != nil {
				assert.ErrorIs(t, err, tt.gateErr)
			}

			assert.Equal(t, int64(0), f.loader.Outstanding())
			assert.Len(t, f.recorder.Dismissed(), 1)
			assert.Equal(t, navigation.StateDone, decision.Trace[len(decision.Trace)-1])
		})
	}
}

func TestGuard_AbortHandlerPanicPropagates(t *testing.T) {
	f := newFixture(t, true)

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		_, _ = f.guard.Navigate(context.Background(), f.env, "/component-manage",
			func(context.Context, navigation.Decision) error { panic(http.ErrAbortHandler) })
	})
	assert.Equal(t, int64(0), f.loader.Outstanding())
	assert.Len(t, f.recorder.Dismissed(), 1)
}

type nilLoader struct{}

func (nilLoader) Show(context.Context, string) navigation.Token { return nil }

func TestGuard_NilToken(t *testing.T) {
	f := newFixture(t, false)
	f.env.Loader = nilLoader{}

	var decision navigation.Decision
	var err error
	require.NotPanics(t, func() {
		decision, err = f.guard.Navigate(context.Background(), f.env, "/component-manage", nil)
	})
	require.NoError(t, err)
	assert.True(t, decision.Redirected())
	assert.Equal(t, navigation.StateDone, decision.Trace[len(decision.Trace)-1])
}

func TestGuard_Concurrent(t *testing.T) {
	f := newFixture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := "/login"
			if i%2 == 0 {
				to = "/component-manage"
			}
			_, err := f.guard.Navigate(context.Background(), f.env, to, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(0), f.loader.Outstanding())
	assert.Len(t, f.recorder.ByLevel(notify.LevelLoading), 20)
	assert.Len(t, f.recorder.Dismissed(), 20)
	assert.Len(t, f.recorder.ByLevel(notify.LevelError), 10)
}

func TestGuard_Config(t *testing.T) {
	_, err := NewGuard(Config{})
	assert.Error(t, err)

	f := newFixture(t, true)
	_, err = f.guard.Navigate(context.Background(), navigation.Env{}, "/login", nil)
	assert.ErrorIs(t, err, ErrMissingCollaborator)
	assert.Empty(t, f.recorder.Notifications())
}

func TestNavigator(t *testing.T) {
	f := newFixture(t, false)
	nav := NewNavigator(f.guard, f.env)

	assert.Empty(t, nav.Current().Path)

	_, err := nav.Push(context.Background(), "/component-manage")
	require.NoError(t, err)
	assert.Equal(t, "/login", nav.Current().Path)

	require.NoError(t, f.gate.SetLoggedIn(context.Background(), true))
	_, err = nav.Push(context.Background(), "/template-edit/7")
	require.NoError(t, err)
	assert.Equal(t, "/template-edit/7", nav.Current().Path)
	assert.Equal(t, "7", nav.Current().Params["componentId"])

	_, err = nav.Push(context.Background(), "/missing")
	assert.ErrorIs(t, err, navigation.ErrRouteNotFound)
	assert.Equal(t, "/template-edit/7", nav.Current().Path)
}
