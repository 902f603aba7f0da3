package session

// State is the per-session gate. The zero value is idle.
type State struct {
	Awaiting bool `json:"awaiting"`
	Cooldown bool `json:"cooldown"`
	Typing   bool `json:"typing"`
}

type Event int

const (
	// Submitted: an input was accepted and a completion request started.
	Submitted Event = iota
	// Completed: the completion returned, successfully or not, and its
	// text starts being revealed.
	Completed
	// GuardRefused: the guard blocked the input and the refusal is being revealed.
	GuardRefused
	// Revealed: the typist finished.
	Revealed
	// CooldownElapsed: the post-submission timer fired.
	CooldownElapsed
)

func (e Event) String() string {
	switch e {
	case Submitted:
		return "submitted"
	case Completed:
		return "completed"
	case GuardRefused:
		return "guard_refused"
	case Revealed:
		return "revealed"
	case CooldownElapsed:
		return "cooldown_elapsed"
	default:
		return "unknown"
	}
}

// Transition returns the state that follows s on e.
func Transition(s State, e Event) State {
	switch e {
	case Submitted:
		s.Awaiting = true
		s.Cooldown = true
	case Completed:
		s.Awaiting = false
		s.Typing = true
	case GuardRefused:
		s.Typing = true
	case Revealed:
		s.Typing = false
	case CooldownElapsed:
		s.Cooldown = false
	}
	return s
}

// CanSubmit reports whether a new submission is accepted. The cooldown can
// elapse while a request is still in flight, so Awaiting gates as well: at
// most one request/typing lifecycle writes to the sequence at a time.
func (s State) CanSubmit() bool {
	return !s.Awaiting && !s.Cooldown && !s.Typing
}

func (s State) Idle() bool {
	return !s.Awaiting && !s.Cooldown && !s.Typing
}
