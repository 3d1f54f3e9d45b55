package goSession

import (
	"context"
	"time"
)

// User is the profile snapshot embedded in the authenticated session
// state. It mirrors the backend's user payload; no credential material is
// carried here.
type User struct {
	ID               string
	Email            string
	FullName         string
	EmailVerified    bool
	TwoFactorEnabled bool
	Active           bool
	Roles            []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastLoginAt      *time.Time
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Roles != nil {
		out.Roles = append([]string(nil), u.Roles...)
	}
	if u.LastLoginAt != nil {
		last := *u.LastLoginAt
		out.LastLoginAt = &last
	}
	return &out
}

// HasRole describes the hasrole operation and its observable behavior.
//
// HasRole may return an error when input validation, dependency calls, or security checks fail.
// HasRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenPair is the credential payload returned by login-shaped
// [AuthClient] operations and by RefreshToken. RefreshToken may be empty
// when the backend does not rotate refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginOutcome is returned by [AuthClient.Login] and by the second-factor
// and passwordless verification calls. Either Tokens+User are populated,
// or TwoFactorRequired is set together with the opaque TwoFactorSession
// handle used to complete the challenge.
type LoginOutcome struct {
	User   *User
	Tokens TokenPair

	TwoFactorRequired bool
	TwoFactorSession  string
}

// RegisterRequest is the input for [Manager.Register].
type RegisterRequest struct {
	Email    string
	Password string
	FullName string
}

// OAuthRequest is the input for [Manager.OAuthLogin]. Provider names the
// backend-configured OAuth provider; Code and State carry the redirect
// callback parameters.
type OAuthRequest struct {
	Provider string
	Code     string
	State    string
}

// AuthClient is the stateless boundary adapter against the remote
// authentication API. Implementations return either a payload or an error;
// failures reported by the backend envelope arrive as [*APIError], and
// transport-level problems satisfy errors.Is against [ErrTransport].
// The Manager never inspects anything below this tagged outcome.
//
//	Docs: docs/auth-client.md
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*LoginOutcome, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginOutcome, error)
	VerifyTwoFactor(ctx context.Context, challengeSession, code string) (*LoginOutcome, error)
	VerifyMagicLink(ctx context.Context, token string) (*LoginOutcome, error)
	OAuthLogin(ctx context.Context, req OAuthRequest) (*LoginOutcome, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetCurrentUser(ctx context.Context, accessToken string) (*User, error)
	Logout(ctx context.Context, accessToken string) error
}

// CredentialStore is the opaque key-value capability holding token
// strings. Backing implementations (OS keychain, encrypted file, Redis)
// are irrelevant to the Manager; see store/ for reference stores.
type CredentialStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
