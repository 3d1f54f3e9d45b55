package goSession

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Timers     TimersConfig
	Keys       KeysConfig
	Calls      CallsConfig
	Subscriber SubscriberConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TIMERS CONFIG
====================================
*/

// TimersConfig defines a public type used by goSession APIs.
//
// TimersConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TimersConfig struct {
	// RefreshInterval is the cadence of the background token refresh.
	// The default of 45 minutes assumes 60-minute access tokens, leaving
	// RefreshMargin of headroom before expiry.
	RefreshInterval time.Duration
	// ValidityInterval is the cadence of the session validity cross-check
	// against server-side revocation.
	ValidityInterval time.Duration
	// RefreshMargin is how long before a token's structural expiry the
	// refresh should already have happened. When the stored access token
	// expires sooner than RefreshInterval+RefreshMargin, the refresh timer
	// fires early.
	RefreshMargin time.Duration
}

/*
====================================
KEYS CONFIG
====================================
*/

// KeysConfig defines a public type used by goSession APIs.
//
// KeysConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type KeysConfig struct {
	AccessToken  string
	RefreshToken string
}

// CallsConfig defines a public type used by goSession APIs.
//
// CallsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CallsConfig struct {
	// BackgroundTimeout bounds timer-triggered collaborator calls, which
	// run without a caller-supplied context.
	BackgroundTimeout time.Duration
	// LogoutTimeout bounds the best-effort server logout call.
	LogoutTimeout time.Duration
}

// SubscriberConfig defines a public type used by goSession APIs.
//
// SubscriberConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SubscriberConfig struct {
	// Buffer is the per-subscriber channel capacity. A slow subscriber
	// whose buffer is full loses the oldest pending state, never blocks
	// the state machine.
	Buffer int
}

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Timers: TimersConfig{
			RefreshInterval:  45 * time.Minute,
			ValidityInterval: 30 * time.Minute,
			RefreshMargin:    15 * time.Minute,
		},
		Keys: KeysConfig{
			AccessToken:  "access_token",
			RefreshToken: "refresh_token",
		},
		Calls: CallsConfig{
			BackgroundTimeout: 30 * time.Second,
			LogoutTimeout:     5 * time.Second,
		},
		Subscriber: SubscriberConfig{
			Buffer: 16,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Timers.RefreshInterval <= 0 {
		return errors.New("invalid refresh interval")
	}
	if c.Timers.ValidityInterval <= 0 {
		return errors.New("invalid validity interval")
	}
	if c.Timers.RefreshMargin < 0 {
		return errors.New("invalid refresh margin")
	}
	if c.Timers.RefreshMargin >= c.Timers.RefreshInterval {
		return errors.New("refresh margin must be smaller than refresh interval")
	}
	if strings.TrimSpace(c.Keys.AccessToken) == "" {
		return errors.New("access token key required")
	}
	if strings.TrimSpace(c.Keys.RefreshToken) == "" {
		return errors.New("refresh token key required")
	}
	if c.Keys.AccessToken == c.Keys.RefreshToken {
		return errors.New("access and refresh token keys must differ")
	}
	if c.Calls.BackgroundTimeout <= 0 {
		return errors.New("invalid background call timeout")
	}
	if c.Calls.LogoutTimeout <= 0 {
		return errors.New("invalid logout timeout")
	}
	if c.Subscriber.Buffer <= 0 {
		return errors.New("invalid subscriber buffer")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("invalid audit buffer size")
	}
	return nil
}
