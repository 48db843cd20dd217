package notify

// Dispatcher renders notifications on some user-visible channel.
type Dispatcher interface {
	// Dispatch shows each notification as an independent alert, in order.
	Dispatch(notes ...Notification)

	// Dismiss hides a previously dispatched notification. Unknown IDs are ignored.
	Dismiss(id string)
}

// Discard drops every notification.
var Discard Dispatcher = discard{}

type discard struct{}

func (discard) Dispatch(...Notification) {}
func (discard) Dismiss(string)           {}

type multi []Dispatcher

// Multi returns a Dispatcher that forwards to every non-nil dispatcher in order.
func Multi(dispatchers ...Dispatcher) Dispatcher {
	var m multi
	for _, d := range dispatchers {
		if d == nil {
			continue
		}
		if inner, ok := d.(multi); ok {
			m = append(m, inner...)
			continue
		}
		m = append(m, d)
	}
	if len(m) == 0 {
		return Discard
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multi) Dispatch(notes ...Notification) {
	if len(notes) == 0 {
		return
	}
	for _, d := range m {
		d.Dispatch(notes...)
	}
}

func (m multi) Dismiss(id string) {
	for _, d := range m {
		d.Dismiss(id)
	}
}

// OrDiscard returns d, or Discard when d is nil.
func OrDiscard(d Dispatcher) Dispatcher {
	if d == nil {
		return Discard
	}
	return d
}
