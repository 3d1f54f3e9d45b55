package goSession

import "errors"

var (
	// ErrManagerClosed is an exported constant or variable used by the session manager.
	ErrManagerClosed = errors.New("manager closed")
	// ErrManagerNotReady is an exported constant or variable used by the session manager.
	ErrManagerNotReady = errors.New("manager not initialized")
	// ErrNotAuthenticated is an exported constant or variable used by the session manager.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidEmail is an exported constant or variable used by the session manager.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidInput is an exported constant or variable used by the session manager.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is an exported constant or variable used by the session manager.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTwoFactorRequired is an exported constant or variable used by the session manager.
	ErrTwoFactorRequired = errors.New("two-factor verification required")
	// ErrTwoFactorInvalid is an exported constant or variable used by the session manager.
	ErrTwoFactorInvalid = errors.New("invalid two-factor code")
	// ErrMagicLinkInvalid is an exported constant or variable used by the session manager.
	ErrMagicLinkInvalid = errors.New("invalid magic link token")
	// ErrRateLimited is an exported constant or variable used by the session manager.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransport is an exported constant or variable used by the session manager.
	ErrTransport = errors.New("transport failure")
	// ErrTokenExpired is an exported constant or variable used by the session manager.
	ErrTokenExpired = errors.New("token expired and refresh failed")
	// ErrNoStoredCredentials is an exported constant or variable used by the session manager.
	ErrNoStoredCredentials = errors.New("no stored credentials")
	// ErrCredentialStoreUnavailable is an exported constant or variable used by the session manager.
	ErrCredentialStoreUnavailable = errors.New("credential store unavailable")
)

// TwoFactorChallenge is returned from [Manager.Login] when the backend
// demands a second factor. It satisfies errors.Is against
// [ErrTwoFactorRequired] so callers can branch to a 2FA flow instead of
// treating the login as failed.
type TwoFactorChallenge struct {
	// Session is the opaque challenge handle to pass to
	// [Manager.VerifyTwoFactor].
	Session string
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *TwoFactorChallenge) Error() string {
	return ErrTwoFactorRequired.Error()
}

// Is describes the is operation and its observable behavior.
//
// Is may return an error when input validation, dependency calls, or security checks fail.
// Is does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *TwoFactorChallenge) Is(target error) bool {
	return target == ErrTwoFactorRequired
}

// APIError is the tagged failure outcome produced by an [AuthClient]
// implementation. Code and Details carry backend-defined diagnostics; the
// Manager only uses Message for the Error session state.
type APIError struct {
	Code    string
	Message string
	Details map[string]string
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}
