//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/httpapi"
	"github.com/MrEthical07/goSession/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const integrationPassword = "integration"

// authBackend is a stateful mock of the auth API. It tracks every token
// pair it issued so /me can reject bearers it never handed out, and it
// counts refresh and logout calls for assertions.
type authBackend struct {
	srv *httptest.Server

	mu           sync.Mutex
	serial       int
	validAccess  map[string]bool
	validRefresh map[string]bool
	refreshCalls int
	logoutCalls  int

	// refreshGate, when non-nil, blocks the refresh handler until closed.
	refreshGate chan struct{}
}

func newAuthBackend(t *testing.T) *authBackend {
	t.Helper()

	b := &authBackend{
		validAccess:  make(map[string]bool),
		validRefresh: make(map[string]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", b.handleLogin)
	mux.HandleFunc("/api/v1/auth/refresh", b.handleRefresh)
	mux.HandleFunc("/api/v1/auth/me", b.handleMe)
	mux.HandleFunc("/api/v1/auth/logout", b.handleLogout)
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *authBackend) issuePair() (string, string) {
	b.serial++
	at := fmt.Sprintf("at-%d", b.serial)
	rt := fmt.Sprintf("rt-%d", b.serial)
	b.validAccess[at] = true
	b.validRefresh[rt] = true
	return at, rt
}

func (b *authBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	if body["password"] != integrationPassword {
		writeFailure(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "bad credentials")
		return
	}
	at, rt := b.issuePair()
	writeSuccess(w, map[string]any{
		"access_token":  at,
		"refresh_token": rt,
		"user":          backendUser(),
	})
}

func (b *authBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	if !b.validRefresh[body["refresh_token"]] {
		writeFailure(w, http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "refresh token not recognized")
		return
	}
	delete(b.validRefresh, body["refresh_token"])
	at, rt := b.issuePair()
	writeSuccess(w, map[string]any{
		"access_token":  at,
		"refresh_token": rt,
	})
}

func (b *authBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	bearer := r.Header.Get("Authorization")

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(bearer) < 8 || !b.validAccess[bearer[7:]] {
		writeFailure(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "access token not recognized")
		return
	}
	writeSuccess(w, backendUser())
}

func (b *authBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	writeSuccess(w, map[string]any{"revoked": true})
}

func (b *authBackend) refreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// revokeAll invalidates every issued access token while leaving refresh
// tokens usable, simulating a server-side access token purge.
func (b *authBackend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = make(map[string]bool)
}

func backendUser() map[string]any {
	now := time.Now().UTC()
	return map[string]any{
		"id":         "u-it",
		"email":      "it@example.com",
		"full_name":  "Integration Test",
		"is_active":  true,
		"roles":      []string{"user"},
		"created_at": now,
		"updated_at": now,
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]any{"code": code, "message": message},
	})
}

func newIntegrationRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func newIntegrationManager(t *testing.T, backend *authBackend, credStore goSession.CredentialStore) *goSession.Manager {
	t.Helper()

	client, err := httpapi.NewClient(backend.srv.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	m, err := goSession.New().
		WithAuthClient(client).
		WithCredentialStore(credStore).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func newRedisCredStore(t *testing.T, rdb *redis.Client, prefix string) *store.RedisStore {
	t.Helper()

	s, err := store.NewRedisStore(rdb, prefix, 0)
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	return s
}
