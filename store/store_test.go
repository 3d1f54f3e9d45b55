package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type credStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

func exerciseStore(t *testing.T, s credStore) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "access_token"); err != nil || found {
		t.Fatalf("expected miss on empty store, got found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "access_token", "tok-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, found, err := s.Get(ctx, "access_token")
	if err != nil || !found || value != "tok-1" {
		t.Fatalf("expected tok-1, got value=%q found=%v err=%v", value, found, err)
	}

	if err := s.Set(ctx, "access_token", "tok-2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, _, _ = s.Get(ctx, "access_token")
	if value != "tok-2" {
		t.Fatalf("expected overwrite to tok-2, got %q", value)
	}

	if err := s.Delete(ctx, "access_token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := s.Get(ctx, "access_token"); found {
		t.Fatal("expected miss after delete")
	}
	if err := s.Delete(ctx, "access_token"); err != nil {
		t.Fatalf("double delete should be a no-op, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s, err := NewRedisStore(client, "gosession-test", 0)
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	exerciseStore(t, s)
}

func TestRedisStoreKeyNamespace(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s, err := NewRedisStore(client, "appX", 0)
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	if err := s.Set(context.Background(), "refresh_token", "rt-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := mr.Get("appX:cred:refresh_token")
	if err != nil || got != "rt-1" {
		t.Fatalf("expected namespaced key, got value=%q err=%v", got, err)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s, err := NewRedisStore(client, "gosession-test", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	if err := s.Set(context.Background(), "access_token", "tok"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, found, _ := s.Get(context.Background(), "access_token"); found {
		t.Fatal("expected credential to expire after TTL")
	}
}

func TestNewRedisStoreNilClient(t *testing.T) {
	if _, err := NewRedisStore(nil, "x", 0); err != ErrNilClient {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}
