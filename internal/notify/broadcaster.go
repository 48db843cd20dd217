// Package notify provides the notification sinks used by the console
// front-ends: a broadcaster that keeps the visible set and streams it to
// subscribers, a per-session hub, a terminal renderer and a recorder.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

const defaultBufferSize = 64

// EventKind says whether a notification appeared or went away.
type EventKind string

const (
	EventShow    EventKind = "show"
	EventDismiss EventKind = "dismiss"
)

// Event is a change to the visible set.
type Event struct {
	Kind         EventKind
	Notification notify.Notification
}

type entry struct {
	note  notify.Notification
	timer clockwork.Timer
}

// Broadcaster is a notify.Dispatcher that keeps the currently visible
// notifications, dismisses each after its duration and fans changes out to
// subscribers. Sends to subscribers never block; a full subscriber misses
// the event.
type Broadcaster struct {
	clock      clockwork.Clock
	bufferSize int

	mu          sync.Mutex
	visible     map[string]*entry
	order       []string
	subscribers map[int]chan Event
	nextSubID   int
	closed      bool

	dropped atomic.Uint64
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithClock sets the clock used for auto-dismissal.
func WithClock(clock clockwork.Clock) BroadcasterOption {
	return func(b *Broadcaster) { b.clock = clock }
}

// WithBufferSize sets the per-subscriber channel capacity.
func WithBufferSize(n int) BroadcasterOption {
	return func(b *Broadcaster) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		clock:       clockwork.NewRealClock(),
		bufferSize:  defaultBufferSize,
		visible:     make(map[string]*entry),
		subscribers: make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dispatch shows each notification in order. A notification whose ID is
// already visible is ignored.
func (b *Broadcaster) Dispatch(notes ...notify.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, n := range notes {
		if _, exists := b.visible[n.ID]; exists {
			continue
		}
		e := &entry{note: n}
		if !n.Sticky() {
			id := n.ID
			e.timer = b.clock.AfterFunc(n.Duration, func() { b.Dismiss(id) })
		}
		b.visible[n.ID] = e
		b.order = append(b.order, n.ID)
		b.publish(Event{Kind: EventShow, Notification: n})
	}
}

// Dismiss hides a visible notification. Unknown IDs are ignored.
func (b *Broadcaster) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.visible[id]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(b.visible, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.publish(Event{Kind: EventDismiss, Notification: e.note})
}

// publish must be called with b.mu held.
func (b *Broadcaster) publish(ev Event) {
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Visible returns the visible notifications in the order they were shown.
func (b *Broadcaster) Visible() []notify.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]notify.Notification, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.visible[id].note)
	}
	return out
}

// Subscribe returns a channel of future events and a function that ends the
// subscription. The channel is closed when the subscription ends or the
// broadcaster is closed.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextSubID
	b.nextSubID++
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(sub)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Dropped returns how many events were not delivered to a full subscriber.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops pending timers and ends every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, e := range b.visible {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
