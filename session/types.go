package session

// State is the lifecycle phase of the authentication session.
type State string

const (
	// StateIdle means no attempt is in progress.
	StateIdle State = "idle"
	// StateOpening means an attempt is being set up: container mount,
	// registration check.
	StateOpening State = "opening"
	// StateWaiting means the login page is presented and the session is
	// waiting for a result.
	StateWaiting State = "waiting"
	// StateLogged means the last attempt completed with a login. The
	// session returns to idle once its side effects are applied.
	StateLogged State = "logged"
	// StateErrored means the last attempt failed.
	StateErrored State = "errored"
	// StateDismissed means the last attempt was closed without a result.
	StateDismissed State = "dismissed"
)

// IsValid returns true if the State is a known value.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateOpening, StateWaiting, StateLogged, StateErrored, StateDismissed:
		return true
	}
	return false
}

// String returns the string representation of the State.
func (s State) String() string {
	return string(s)
}

// OpenOptions carries the per-attempt options of Controller.Open.
type OpenOptions struct {
	// DisableGuestLogin hides the provider's guest login option.
	DisableGuestLogin bool

	// Extra is appended verbatim to the login page URL.
	Extra map[string]string
}
