package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/store"
)

type scriptedClient struct {
	refreshed atomic.Int64
	store     *store.MemoryStore
}

func (c *scriptedClient) Login(context.Context, string, string) (*goSession.LoginOutcome, error) {
	return &goSession.LoginOutcome{
		User:   &goSession.User{ID: "u-1", Email: "a@b.co", Active: true},
		Tokens: goSession.TokenPair{AccessToken: "at-old", RefreshToken: "rt-1"},
	}, nil
}

func (c *scriptedClient) Register(context.Context, goSession.RegisterRequest) (*goSession.LoginOutcome, error) {
	return nil, goSession.ErrInvalidInput
}

func (c *scriptedClient) VerifyTwoFactor(context.Context, string, string) (*goSession.LoginOutcome, error) {
	return nil, goSession.ErrTwoFactorInvalid
}

func (c *scriptedClient) VerifyMagicLink(context.Context, string) (*goSession.LoginOutcome, error) {
	return nil, goSession.ErrMagicLinkInvalid
}

func (c *scriptedClient) OAuthLogin(context.Context, goSession.OAuthRequest) (*goSession.LoginOutcome, error) {
	return nil, goSession.ErrInvalidCredentials
}

func (c *scriptedClient) RefreshToken(context.Context, string) (*goSession.TokenPair, error) {
	c.refreshed.Add(1)
	return &goSession.TokenPair{AccessToken: "at-new", RefreshToken: "rt-2"}, nil
}

func (c *scriptedClient) GetCurrentUser(context.Context, string) (*goSession.User, error) {
	return &goSession.User{ID: "u-1", Active: true}, nil
}

func (c *scriptedClient) Logout(context.Context, string) error { return nil }

func newSession(t *testing.T) (*goSession.Manager, *store.MemoryStore, *scriptedClient) {
	t.Helper()
	st := store.NewMemoryStore()
	client := &scriptedClient{store: st}
	m, err := goSession.New().
		WithAuthClient(client).
		WithCredentialStore(st).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	if _, err := m.Login(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return m, st, client
}

func TestRoundTripAttachesBearer(t *testing.T) {
	m, st, _ := newSession(t)

	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	rt, err := NewAuthTransport(m, st)
	if err != nil {
		t.Fatalf("NewAuthTransport: %v", err)
	}
	client := &http.Client{Transport: rt}

	resp, err := client.Get(srv.URL + "/data")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got := seen.Load(); got != "Bearer at-old" {
		t.Fatalf("expected bearer header, got %v", got)
	}
}

func TestRoundTripRefreshesOn401(t *testing.T) {
	m, st, backend := newSession(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer at-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt, err := NewAuthTransport(m, st)
	if err != nil {
		t.Fatalf("NewAuthTransport: %v", err)
	}
	client := &http.Client{Transport: rt}

	resp, err := client.Get(srv.URL + "/data")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected retried request to succeed, got %d", resp.StatusCode)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly 2 backend calls, got %d", calls.Load())
	}
	if backend.refreshed.Load() != 1 {
		t.Fatalf("expected one refresh, got %d", backend.refreshed.Load())
	}
}

func TestRoundTripGivesUpAfterOneRetry(t *testing.T) {
	m, st, _ := newSession(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	rt, err := NewAuthTransport(m, st)
	if err != nil {
		t.Fatalf("NewAuthTransport: %v", err)
	}
	client := &http.Client{Transport: rt}

	resp, err := client.Get(srv.URL + "/data")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 to surface after retry, got %d", resp.StatusCode)
	}
}

func TestNewAuthTransportValidation(t *testing.T) {
	if _, err := NewAuthTransport(nil, store.NewMemoryStore()); err != ErrNilManager {
		t.Fatalf("expected ErrNilManager, got %v", err)
	}
	m, st, _ := newSession(t)
	_ = st
	if _, err := NewAuthTransport(m, nil); err != ErrNilStore {
		t.Fatalf("expected ErrNilStore, got %v", err)
	}
}
