package notify

import (
	"sync"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// Recorder records everything dispatched to it.
type Recorder struct {
	mu         sync.Mutex
	dispatched []notify.Notification
	dismissed  []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Dispatch(notes ...notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched = append(r.dispatched, notes...)
}

func (r *Recorder) Dismiss(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissed = append(r.dismissed, id)
}

// Notifications returns every dispatched notification in order.
func (r *Recorder) Notifications() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.dispatched...)
}

// ByLevel returns the dispatched notifications of one level in order.
func (r *Recorder) ByLevel(level notify.Level) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []notify.Notification
	for _, n := range r.dispatched {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

// Dismissed returns the dismissed IDs in order.
func (r *Recorder) Dismissed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dismissed...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched = nil
	r.dismissed = nil
}
