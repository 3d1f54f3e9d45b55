package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is an exported constant or variable used by the session manager.
var ErrMalformed = errors.New("token: malformed token")

// Claims defines a public type used by goSession APIs.
type Claims struct {
	Subject   string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type rawClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes the claims of a compact JWT without signature
// verification. The zero time is returned for claims the token does not
// carry.
//
// Inspect may return an error when the token is not a structurally valid JWT.
// Inspect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Inspect(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrMalformed
	}
	var rc rawClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &rc); err != nil {
		return Claims{}, ErrMalformed
	}

	c := Claims{
		Subject:   rc.Subject,
		SessionID: rc.SessionID,
	}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the token's exp claim lies at or before now.
// Tokens that are unreadable or carry no expiry are treated as live; the
// backend remains the authority and will reject them if they are not.
func Expired(raw string, now time.Time) bool {
	c, err := Inspect(raw)
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !c.ExpiresAt.After(now)
}

// ExpiresWithin reports whether the token expires inside the given window
// from now. Unreadable tokens and tokens without an expiry report false.
func ExpiresWithin(raw string, now time.Time, window time.Duration) bool {
	c, err := Inspect(raw)
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return c.ExpiresAt.Before(now.Add(window))
}
