package goSession

// Phase identifies which variant of the session state machine is active.
//
//	Docs: docs/state-machine.md
type Phase uint8

const (
	// PhaseInitializing is an exported constant or variable used by the session manager.
	PhaseInitializing Phase = iota
	// PhaseUnauthenticated is an exported constant or variable used by the session manager.
	PhaseUnauthenticated
	// PhaseAuthenticating is an exported constant or variable used by the session manager.
	PhaseAuthenticating
	// PhaseAuthenticated is an exported constant or variable used by the session manager.
	PhaseAuthenticated
	// PhaseLoggingOut is an exported constant or variable used by the session manager.
	PhaseLoggingOut
	// PhaseError is an exported constant or variable used by the session manager.
	PhaseError
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseLoggingOut:
		return "logging_out"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionState is the tagged union observed by subscribers. Exactly one
// variant is active: User is non-nil only in [PhaseAuthenticated], Message
// is non-empty only in [PhaseError]. Raw tokens never appear here.
type SessionState struct {
	Phase   Phase
	User    *User
	Message string
}

func stateInitializing() SessionState {
	return SessionState{Phase: PhaseInitializing}
}

func stateUnauthenticated() SessionState {
	return SessionState{Phase: PhaseUnauthenticated}
}

func stateAuthenticating() SessionState {
	return SessionState{Phase: PhaseAuthenticating}
}

func stateAuthenticated(user *User) SessionState {
	return SessionState{Phase: PhaseAuthenticated, User: user}
}

func stateLoggingOut() SessionState {
	return SessionState{Phase: PhaseLoggingOut}
}

func stateError(message string) SessionState {
	return SessionState{Phase: PhaseError, Message: message}
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated may return an error when input validation, dependency calls, or security checks fail.
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s SessionState) IsAuthenticated() bool {
	return s.Phase == PhaseAuthenticated
}

// IsTransient reports whether the state should render as a loading
// indicator (authenticating or logging out).
func (s SessionState) IsTransient() bool {
	return s.Phase == PhaseAuthenticating || s.Phase == PhaseLoggingOut
}
