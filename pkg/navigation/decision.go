package navigation

// State is a step of the navigation state machine.
type State int

const (
	StateEnter State = iota
	StateDeciding
	StateRedirect
	StateProceed
	StateDone
)

func (s State) String() string {
	switch s {
	case StateEnter:
		return "enter"
	case StateDeciding:
		return "deciding"
	case StateRedirect:
		return "redirect"
	case StateProceed:
		return "proceed"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome is the committed result of a navigation attempt.
type Outcome string

const (
	OutcomeProceed  Outcome = "proceed"
	OutcomeRedirect Outcome = "redirect"
)

// Decision describes one navigation attempt.
type Decision struct {
	// Requested is the path the caller asked for
	Requested string
	// Target is where the navigation ends: the requested location on proceed,
	// the login location on redirect
	Target  Location
	Outcome Outcome
	// Trace lists the states visited, in order
	Trace []State
}

// Redirected reports whether the attempt was sent to the login route.
func (d Decision) Redirected() bool {
	return d.Outcome == OutcomeRedirect
}
