package notify

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultSessionIdle is how long a session without subscribers is kept
// after its last use.
const DefaultSessionIdle = 30 * time.Minute

type hubSession struct {
	broadcaster *Broadcaster
	lastUsed    time.Time
}

// Hub keeps one Broadcaster per browser session. Sessions that have not been
// used for the idle timeout and have no subscribers are evicted by Sweep.
type Hub struct {
	clock clockwork.Clock
	idle  time.Duration

	mu       sync.Mutex
	sessions map[string]*hubSession
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSessionIdle sets the idle timeout after which a session is evicted.
func WithSessionIdle(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.idle = d
		}
	}
}

// NewHub creates a hub whose broadcasters use clock.
func NewHub(clock clockwork.Clock, opts ...HubOption) *Hub {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	h := &Hub{
		clock:    clock,
		idle:     DefaultSessionIdle,
		sessions: make(map[string]*hubSession),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Session returns the broadcaster for sessionID, creating it on first use.
// Every call counts as a use of the session.
func (h *Hub) Session(sessionID string) *Broadcaster {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		s = &hubSession{broadcaster: NewBroadcaster(WithClock(h.clock))}
		h.sessions[sessionID] = s
	}
	s.lastUsed = h.clock.Now()
	return s.broadcaster
}

// Remove closes and forgets the broadcaster for sessionID.
func (h *Hub) Remove(sessionID string) {
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	if ok {
		s.broadcaster.Close()
	}
}

// Sweep evicts sessions idle for longer than the idle timeout that have no
// open subscription, and returns how many were evicted.
func (h *Hub) Sweep() int {
	cutoff := h.clock.Now().Add(-h.idle)

	h.mu.Lock()
	var evicted []*Broadcaster
	for id, s := range h.sessions {
		if s.lastUsed.After(cutoff) || s.broadcaster.Subscribers() > 0 {
			continue
		}
		delete(h.sessions, id)
		evicted = append(evicted, s.broadcaster)
	}
	h.mu.Unlock()

	for _, b := range evicted {
		b.Close()
	}
	return len(evicted)
}

// Run sweeps every half idle timeout until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(h.idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			h.Sweep()
		}
	}
}

// Len returns the number of sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close closes every session broadcaster.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*hubSession)
	h.mu.Unlock()

	for _, s := range sessions {
		s.broadcaster.Close()
	}
}
