package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/httpapi"
	"github.com/MrEthical07/goSession/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		managers    = flag.Int("managers", 512, "number of session managers to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (refresh + validity)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "ls", "credential key prefix")
	)
	flag.Parse()

	if *managers <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "managers, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	backend := newFakeBackend()
	defer backend.srv.Close()

	apiClient, err := httpapi.NewClient(backend.srv.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeding %d managers...\n", *managers)
	startSeed := time.Now()
	pool := make([]*goSession.Manager, *managers)
	for i := range pool {
		credStore, err := store.NewRedisStore(client, fmt.Sprintf("%s-%d", *prefix, i), 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "store: %v\n", err)
			os.Exit(1)
		}
		m, err := goSession.New().
			WithMetricsEnabled(false).
			WithAuthClient(apiClient).
			WithCredentialStore(credStore).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build: %v\n", err)
			os.Exit(1)
		}
		if _, err := m.Login(ctx, fmt.Sprintf("load-%d@example.com", i), "loadtest"); err != nil {
			fmt.Fprintf(os.Stderr, "seed login failed: %v\n", err)
			os.Exit(1)
		}
		pool[i] = m
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	refreshStats := runPhase(pool, *ops, *concurrency, func(m *goSession.Manager) error {
		_, err := m.RefreshToken(ctx)
		return err
	})
	validityStats := runPhase(pool, *ops, *concurrency, func(m *goSession.Manager) error {
		_, err := m.CheckSessionValidity(ctx)
		return err
	})

	for _, m := range pool {
		m.Close()
	}

	fmt.Println("---- results ----")
	printStats("refresh", refreshStats)
	printStats("validity", validityStats)
	fmt.Printf("backend: logins=%d refreshes=%d me=%d\n",
		backend.logins.Load(), backend.refreshes.Load(), backend.me.Load())
}

func runPhase(pool []*goSession.Manager, ops, concurrency int, op func(*goSession.Manager) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				m := pool[r.Intn(len(pool))]
				t0 := time.Now()
				err := op(m)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// fakeBackend is an in-process auth API that issues unique token pairs
// per login and refresh. It keeps no per-session state beyond counters;
// every bearer token it issued is accepted by /me.
type fakeBackend struct {
	srv       *httptest.Server
	serial    atomic.Int64
	logins    atomic.Int64
	refreshes atomic.Int64
	me        atomic.Int64
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.logins.Add(1)
		b.writeTokens(w, true)
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshes.Add(1)
		b.writeTokens(w, false)
	})
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.me.Add(1)
		writeJSON(w, map[string]any{"success": true, "data": b.user()})
	})
	mux.HandleFunc("/api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "data": map[string]any{"revoked": true}})
	})
	b.srv = httptest.NewServer(mux)
	return b
}

func (b *fakeBackend) writeTokens(w http.ResponseWriter, withUser bool) {
	n := b.serial.Add(1)
	data := map[string]any{
		"access_token":  fmt.Sprintf("at-%d", n),
		"refresh_token": fmt.Sprintf("rt-%d", n),
	}
	if withUser {
		data["user"] = b.user()
	}
	writeJSON(w, map[string]any{"success": true, "data": data})
}

func (b *fakeBackend) user() map[string]any {
	now := time.Now().UTC()
	return map[string]any{
		"id":         "u-load",
		"email":      "load@example.com",
		"full_name":  "Load Test",
		"is_active":  true,
		"roles":      []string{"user"},
		"created_at": now,
		"updated_at": now,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
