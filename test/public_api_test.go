package test

import (
	"context"
	"net/http"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/transport"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goSession.New

	var _ *goSession.Manager
	var _ goSession.Config
	var _ goSession.SessionState
	var _ goSession.Phase
	var _ goSession.User
	var _ goSession.TokenPair
	var _ goSession.LoginOutcome
	var _ goSession.RegisterRequest
	var _ goSession.OAuthRequest
	var _ goSession.AuthClient
	var _ goSession.CredentialStore
	var _ goSession.AuditSink
	var _ *goSession.TwoFactorChallenge
	var _ *goSession.APIError

	var _ error = goSession.ErrManagerClosed
	var _ error = goSession.ErrNotAuthenticated
	var _ error = goSession.ErrInvalidEmail
	var _ error = goSession.ErrInvalidCredentials
	var _ error = goSession.ErrTwoFactorRequired
	var _ error = goSession.ErrRateLimited
	var _ error = goSession.ErrTransport
	var _ error = goSession.ErrNoStoredCredentials

	var _ func(*goSession.Manager, goSession.CredentialStore, ...transport.Option) (*transport.AuthTransport, error) = transport.NewAuthTransport
	var _ http.RoundTripper = (*transport.AuthTransport)(nil)

	var _ func(*goSession.Manager, context.Context) (goSession.SessionState, error) = (*goSession.Manager).Initialize
	var _ func(*goSession.Manager, context.Context, string, string) (goSession.SessionState, error) = (*goSession.Manager).Login
	var _ func(*goSession.Manager, context.Context) (bool, error) = (*goSession.Manager).RefreshToken
	var _ func(*goSession.Manager, context.Context) (bool, error) = (*goSession.Manager).CheckSessionValidity
	var _ func(*goSession.Manager, context.Context) goSession.SessionState = (*goSession.Manager).Logout
	var _ func(*goSession.Manager) (<-chan goSession.SessionState, func()) = (*goSession.Manager).Subscribe
	var _ func(*goSession.Manager) goSession.MetricsSnapshot = (*goSession.Manager).MetricsSnapshot
}
