package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

func TestHub(t *testing.T) {
	h := NewHub(clockwork.NewFakeClock())
	defer h.Close()

	a := h.Session("session-a")
	assert.Same(t, a, h.Session("session-a"))
	b := h.Session("session-b")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, h.Len())

	a.Dispatch(notify.New(notify.LevelError, "Please log in first", "", 3*time.Second))
	assert.Len(t, a.Visible(), 1)
	assert.Empty(t, b.Visible())

	events, _ := a.Subscribe()
	h.Remove("session-a")
	_, ok := <-events
	assert.False(t, ok)
	assert.Equal(t, 1, h.Len())
	assert.NotSame(t, a, h.Session("session-a"))
}

func TestHub_Sweep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := NewHub(clock)
	defer h.Close()

	watched := h.Session("watched")
	_, unsubscribe := watched.Subscribe()
	idle := h.Session("idle")
	h.Session("active")

	clock.Advance(DefaultSessionIdle + time.Minute)
	h.Session("active")

	assert.Equal(t, 1, h.Sweep())
	assert.Equal(t, 2, h.Len())
	events, _ := idle.Subscribe()
	_, ok := <-events
	assert.False(t, ok, "evicted broadcaster is closed")

	unsubscribe()
	clock.Advance(DefaultSessionIdle + time.Minute)
	assert.Equal(t, 2, h.Sweep())
	assert.Equal(t, 0, h.Len())
}

func TestHub_Run(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := NewHub(clock, WithSessionIdle(time.Minute))
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()

	for i := 0; i < 10; i++ {
		h.Session("visitor-" + string(rune('a'+i)))
	}
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	assert.Eventually(t, func() bool {
		clock.Advance(30 * time.Second)
		return h.Len() == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, notify.LevelLoading)

	term.Dispatch(
		notify.New(notify.LevelError, "Validation failed", "name is required", 3*time.Second),
		notify.New(notify.LevelLoading, "Page loading...", "", 0),
		notify.New(notify.LevelSuccess, "Request succeeded", "", time.Second),
	)
	term.Dismiss("anything")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "[error]")
	assert.Contains(t, string(lines[0]), "Validation failed")
	assert.Contains(t, string(lines[0]), "name is required")
	assert.Contains(t, string(lines[1]), "Request succeeded")
	assert.NotContains(t, buf.String(), "Page loading...")
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	info := notify.New(notify.LevelInfo, "Request in progress...", "", time.Second)
	fail := notify.New(notify.LevelError, "Operation failed", "boom", 3*time.Second)

	r.Dispatch(info, fail)
	r.Dismiss(info.ID)

	assert.Len(t, r.Notifications(), 2)
	require.Len(t, r.ByLevel(notify.LevelError), 1)
	assert.Equal(t, "boom", r.ByLevel(notify.LevelError)[0].Description)
	assert.Empty(t, r.ByLevel(notify.LevelSuccess))
	assert.Equal(t, []string{info.ID}, r.Dismissed())

	r.Reset()
	assert.Empty(t, r.Notifications())
	assert.Empty(t, r.Dismissed())
}
