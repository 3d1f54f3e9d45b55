package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	goSession "github.com/MrEthical07/goSession"
)

// ErrNilController is an exported constant or variable used by the session manager.
var ErrNilController = errors.New("realtime: session controller is nil")

// ErrNilURL is an exported constant or variable used by the session manager.
var ErrNilURL = errors.New("realtime: websocket URL is empty")

// Event types pushed by the backend.
const (
	eventSessionRevoked = "session_revoked"
	eventForceRefresh   = "force_refresh"
)

// SessionController is the slice of the manager surface the listener
// needs. *goSession.Manager satisfies it.
type SessionController interface {
	RefreshToken(ctx context.Context) (bool, error)
	Logout(ctx context.Context) goSession.SessionState
}

type wireEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// Listener defines a public type used by goSession APIs.
//
// The zero value is not usable; construct with NewListener.
type Listener struct {
	url        string
	controller SessionController
	dialer     *websocket.Dialer

	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// Option defines a public type used by goSession APIs.
type Option func(*Listener)

// WithDialer describes the withdialer operation and its observable behavior.
//
// WithDialer may return an error when input validation, dependency calls, or security checks fail.
// WithDialer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WithDialer(d *websocket.Dialer) Option {
	return func(l *Listener) {
		if d != nil {
			l.dialer = d
		}
	}
}

// WithBackoff describes the withbackoff operation and its observable behavior.
//
// WithBackoff may return an error when input validation, dependency calls, or security checks fail.
// WithBackoff does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WithBackoff(base, max time.Duration) Option {
	return func(l *Listener) {
		if base > 0 {
			l.baseBackoff = base
		}
		if max >= l.baseBackoff {
			l.maxBackoff = max
		}
	}
}

// NewListener describes the newlistener operation and its observable behavior.
//
// NewListener may return an error when input validation, dependency calls, or security checks fail.
// NewListener does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewListener(url string, controller SessionController, opts ...Option) (*Listener, error) {
	if url == "" {
		return nil, ErrNilURL
	}
	if controller == nil {
		return nil, ErrNilController
	}
	l := &Listener{
		url:         url,
		controller:  controller,
		dialer:      websocket.DefaultDialer,
		baseBackoff: time.Second,
		maxBackoff:  time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run connects and processes events until ctx is canceled. It blocks;
// callers run it in a goroutine. The return value is ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			attempt++
			wait := l.backoff(attempt)
			log.Print("goSession: realtime dial failed, retrying in ", wait, ": ", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		attempt = 0
		l.readLoop(ctx, conn)
	}
}

// readLoop drains one connection. A read error ends the loop and hands
// control back to Run for the reconnect.
func (l *Listener) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Print("goSession: realtime connection lost: ", err)
			}
			return
		}
		var ev wireEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Print("goSession: realtime event is not valid JSON, ignoring")
			continue
		}
		l.handle(ctx, ev)
	}
}

func (l *Listener) handle(ctx context.Context, ev wireEvent) {
	switch ev.Type {
	case eventSessionRevoked:
		l.controller.Logout(ctx)
	case eventForceRefresh:
		if _, err := l.controller.RefreshToken(ctx); err != nil {
			log.Print("goSession: pushed refresh failed: ", err)
		}
	default:
		// Unknown event types are forward compatibility, not errors.
	}
}

// backoff returns the wait before reconnect attempt n (1-based),
// doubling from the base up to the cap.
func (l *Listener) backoff(attempt int) time.Duration {
	wait := l.baseBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= l.maxBackoff {
			return l.maxBackoff
		}
	}
	if wait > l.maxBackoff {
		return l.maxBackoff
	}
	return wait
}
