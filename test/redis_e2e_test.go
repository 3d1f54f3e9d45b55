//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/store"
)

func TestLoginPersistsCredentialsToRedis(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newIntegrationRedis(t)
	backend := newAuthBackend(t)
	m := newIntegrationManager(t, backend, newRedisCredStore(t, rdb, "it"))

	state, err := m.Login(ctx, "it@example.com", integrationPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if state.Phase != goSession.PhaseAuthenticated {
		t.Fatalf("phase = %v, want authenticated", state.Phase)
	}

	at, err := mr.Get("it:cred:access_token")
	if err != nil {
		t.Fatalf("access token not in redis: %v", err)
	}
	rt, err := mr.Get("it:cred:refresh_token")
	if err != nil {
		t.Fatalf("refresh token not in redis: %v", err)
	}
	if at == "" || rt == "" || at == rt {
		t.Fatalf("unexpected stored tokens at=%q rt=%q", at, rt)
	}
}

func TestInitializeRestoresSessionAcrossManagers(t *testing.T) {
	ctx := context.Background()
	_, rdb := newIntegrationRedis(t)
	backend := newAuthBackend(t)

	first := newIntegrationManager(t, backend, newRedisCredStore(t, rdb, "it"))
	if _, err := first.Login(ctx, "it@example.com", integrationPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	first.Close()

	// A fresh manager sharing the store picks the session back up.
	second := newIntegrationManager(t, backend, newRedisCredStore(t, rdb, "it"))
	state, err := second.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if state.Phase != goSession.PhaseAuthenticated {
		t.Fatalf("phase = %v, want authenticated", state.Phase)
	}
	if state.User == nil || state.User.Email != "it@example.com" {
		t.Fatalf("restored user = %+v", state.User)
	}
}

func TestInitializeRecoversViaRefreshAfterAccessRevocation(t *testing.T) {
	ctx := context.Background()
	_, rdb := newIntegrationRedis(t)
	backend := newAuthBackend(t)

	first := newIntegrationManager(t, backend, newRedisCredStore(t, rdb, "it"))
	if _, err := first.Login(ctx, "it@example.com", integrationPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	first.Close()

	backend.revokeAll()

	second := newIntegrationManager(t, backend, newRedisCredStore(t, rdb, "it"))
	state, err := second.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if state.Phase != goSession.PhaseAuthenticated {
		t.Fatalf("phase = %v, want authenticated after refresh recovery", state.Phase)
	}
	if got := backend.refreshCount(); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
}

func TestLogoutClearsRedisCredentials(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newIntegrationRedis(t)
	backend := newAuthBackend(t)
	m := newIntegrationManager(t, backend, newRedisCredStore(t, rdb, "it"))

	if _, err := m.Login(ctx, "it@example.com", integrationPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	state := m.Logout(ctx)
	if state.Phase != goSession.PhaseUnauthenticated {
		t.Fatalf("phase = %v, want unauthenticated", state.Phase)
	}
	if mr.Exists("it:cred:access_token") || mr.Exists("it:cred:refresh_token") {
		t.Fatal("credentials still present in redis after logout")
	}
}

func TestCredentialTTLExpiryBootstrapsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newIntegrationRedis(t)
	backend := newAuthBackend(t)

	credStore, err := store.NewRedisStore(rdb, "it", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	first := newIntegrationManager(t, backend, credStore)
	if _, err := first.Login(ctx, "it@example.com", integrationPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	first.Close()

	mr.FastForward(2 * time.Minute)

	second := newIntegrationManager(t, backend, credStore)
	state, err := second.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if state.Phase != goSession.PhaseUnauthenticated {
		t.Fatalf("phase = %v, want unauthenticated after TTL expiry", state.Phase)
	}
}
