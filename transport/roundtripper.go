package transport

import (
	"errors"
	"io"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// ErrNilManager is an exported constant or variable used by the session manager.
var ErrNilManager = errors.New("transport: session manager is nil")

// ErrNilStore is an exported constant or variable used by the session manager.
var ErrNilStore = errors.New("transport: credential store is nil")

// AuthTransport defines a public type used by goSession APIs.
//
// The zero value is not usable; construct with NewAuthTransport.
type AuthTransport struct {
	manager  *goSession.Manager
	store    goSession.CredentialStore
	tokenKey string
	base     http.RoundTripper
}

// Option defines a public type used by goSession APIs.
type Option func(*AuthTransport)

// WithBase describes the withbase operation and its observable behavior.
//
// WithBase may return an error when input validation, dependency calls, or security checks fail.
// WithBase does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WithBase(rt http.RoundTripper) Option {
	return func(t *AuthTransport) {
		if rt != nil {
			t.base = rt
		}
	}
}

// WithTokenKey describes the withtokenkey operation and its observable behavior.
//
// WithTokenKey may return an error when input validation, dependency calls, or security checks fail.
// WithTokenKey does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WithTokenKey(key string) Option {
	return func(t *AuthTransport) {
		if key != "" {
			t.tokenKey = key
		}
	}
}

// NewAuthTransport describes the newauthtransport operation and its observable behavior.
//
// NewAuthTransport may return an error when input validation, dependency calls, or security checks fail.
// NewAuthTransport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewAuthTransport(manager *goSession.Manager, store goSession.CredentialStore, opts ...Option) (*AuthTransport, error) {
	if manager == nil {
		return nil, ErrNilManager
	}
	if store == nil {
		return nil, ErrNilStore
	}
	t := &AuthTransport{
		manager:  manager,
		store:    store,
		tokenKey: "access_token",
		base:     http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RoundTrip attaches the access token and retries once through a refresh
// when the backend rejects it. Requests with non-rewindable bodies are
// never retried; replaying a consumed body would corrupt the request.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.currentToken(req)
	attempt := cloneWithBearer(req, token)

	resp, err := t.base.RoundTrip(attempt)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || token == "" {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	if ok, rerr := t.manager.RefreshToken(req.Context()); rerr != nil || !ok {
		return resp, nil
	}
	fresh := t.currentToken(req)
	if fresh == "" || fresh == token {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retry := cloneWithBearer(req, fresh)
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, berr
		}
		retry.Body = body
	}
	return t.base.RoundTrip(retry)
}

func (t *AuthTransport) currentToken(req *http.Request) string {
	value, found, err := t.store.Get(req.Context(), t.tokenKey)
	if err != nil || !found {
		return ""
	}
	return value
}

func cloneWithBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	if token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	return clone
}
