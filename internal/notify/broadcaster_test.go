package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_Dispatch(t *testing.T) {
	t.Run("keeps_order_and_publishes", func(t *testing.T) {
		b := NewBroadcaster(WithClock(clockwork.NewFakeClock()))
		defer b.Close()

		events, cancel := b.Subscribe()
		defer cancel()

		first := notify.New(notify.LevelError, "Validation failed", "name is required", 3*time.Second)
		second := notify.New(notify.LevelError, "Validation failed", "code is too long", 3*time.Second)
		b.Dispatch(first, second)

		visible := b.Visible()
		require.Len(t, visible, 2)
		assert.Equal(t, first.ID, visible[0].ID)
		assert.Equal(t, second.ID, visible[1].ID)

		ev := receive(t, events)
		assert.Equal(t, EventShow, ev.Kind)
		assert.Equal(t, first.ID, ev.Notification.ID)
		ev = receive(t, events)
		assert.Equal(t, second.ID, ev.Notification.ID)
	})

	t.Run("ignores_duplicate_ids", func(t *testing.T) {
		b := NewBroadcaster(WithClock(clockwork.NewFakeClock()))
		defer b.Close()

		n := notify.New(notify.LevelInfo, "Request in progress...", "", time.Second)
		b.Dispatch(n)
		b.Dispatch(n)

		assert.Len(t, b.Visible(), 1)
	})

	t.Run("auto_dismisses_after_duration", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		b := NewBroadcaster(WithClock(clock))
		defer b.Close()

		short := notify.New(notify.LevelSuccess, "Request succeeded", "", time.Second)
		long := notify.New(notify.LevelError, "Operation failed", "boom", 3*time.Second)
		sticky := notify.New(notify.LevelLoading, "Page loading...", "", 0)
		b.Dispatch(short, long, sticky)

		clock.Advance(time.Second)
		assert.Eventually(t, func() bool { return len(b.Visible()) == 2 }, time.Second, 5*time.Millisecond)

		clock.Advance(2 * time.Second)
		assert.Eventually(t, func() bool { return len(b.Visible()) == 1 }, time.Second, 5*time.Millisecond)

		clock.Advance(time.Hour)
		require.Len(t, b.Visible(), 1)
		assert.Equal(t, sticky.ID, b.Visible()[0].ID)
	})

	t.Run("after_close_is_noop", func(t *testing.T) {
		b := NewBroadcaster()
		b.Close()
		b.Dispatch(notify.New(notify.LevelInfo, "ignored", "", time.Second))
		assert.Empty(t, b.Visible())
	})
}

func TestBroadcaster_Dismiss(t *testing.T) {
	b := NewBroadcaster(WithClock(clockwork.NewFakeClock()))
	defer b.Close()

	events, cancel := b.Subscribe()
	defer cancel()

	n := notify.New(notify.LevelLoading, "Page loading...", "", 0)
	b.Dispatch(n)
	receive(t, events)

	b.Dismiss(n.ID)
	ev := receive(t, events)
	assert.Equal(t, EventDismiss, ev.Kind)
	assert.Equal(t, n.ID, ev.Notification.ID)
	assert.Empty(t, b.Visible())

	// unknown and repeated IDs publish nothing
	b.Dismiss(n.ID)
	b.Dismiss("unknown")
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestBroadcaster_SlowSubscriberNeverBlocks(t *testing.T) {
	b := NewBroadcaster(WithClock(clockwork.NewFakeClock()), WithBufferSize(1))
	defer b.Close()

	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			b.Dispatch(notify.New(notify.LevelInfo, "tick", "", 0))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a slow subscriber")
	}
	assert.Equal(t, uint64(9), b.Dropped())
	assert.Len(t, b.Visible(), 10)
}

func TestBroadcaster_Subscribe(t *testing.T) {
	t.Run("cancel_closes_channel", func(t *testing.T) {
		b := NewBroadcaster()
		defer b.Close()

		events, cancel := b.Subscribe()
		assert.Equal(t, 1, b.Subscribers())

		cancel()
		cancel()
		_, ok := <-events
		assert.False(t, ok)
		assert.Equal(t, 0, b.Subscribers())
	})

	t.Run("close_ends_subscriptions", func(t *testing.T) {
		b := NewBroadcaster()
		events, cancel := b.Subscribe()
		defer cancel()

		b.Close()
		_, ok := <-events
		assert.False(t, ok)

		late, _ := b.Subscribe()
		_, ok = <-late
		assert.False(t, ok)
	})

	t.Run("concurrent_dispatchers", func(t *testing.T) {
		b := NewBroadcaster(WithClock(clockwork.NewFakeClock()))
		defer b.Close()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					n := notify.New(notify.LevelInfo, "x", "", 0)
					b.Dispatch(n)
					b.Dismiss(n.ID)
				}
			}()
		}
		wg.Wait()
		assert.Empty(t, b.Visible())
	})
}
