// Package loading implements the navigation loading indicator on top of a
// notification dispatcher.
package loading

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// Indicator shows each loading indicator as a sticky loading notification and
// dismisses it when its token is released.
type Indicator struct {
	notifier    notify.Dispatcher
	outstanding atomic.Int64
}

var _ navigation.Loader = (*Indicator)(nil)

// New creates an indicator that renders through d.
func New(d notify.Dispatcher) *Indicator {
	return &Indicator{notifier: notify.OrDiscard(d)}
}

// Show displays text until the returned token is released.
func (i *Indicator) Show(_ context.Context, text string) navigation.Token {
	n := notify.New(notify.LevelLoading, text, "", 0)
	i.outstanding.Add(1)
	i.notifier.Dispatch(n)
	return &token{id: n.ID, indicator: i}
}

// Outstanding returns the number of shown indicators not yet released.
func (i *Indicator) Outstanding() int64 {
	return i.outstanding.Load()
}

type token struct {
	id        string
	indicator *Indicator
	once      sync.Once
}

func (t *token) ID() string {
	return t.id
}

func (t *token) Release() {
	t.once.Do(func() {
		t.indicator.notifier.Dismiss(t.id)
		t.indicator.outstanding.Add(-1)
	})
}
