package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrEthical07/skillsync"
	otelexport "github.com/MrEthical07/skillsync/metrics/export/otel"
	"github.com/MrEthical07/skillsync/session"
	"github.com/MrEthical07/skillsync/tokenstore"
)

const (
	stubAccess = "loadtest-access"
	stubMe     = `{"user":{"id":1,"username":"load","email":"load@example.com","role":"freelancer"},` +
		`"profile":{"id":1,"user":1,"name":"Load","skills":["go"],"experience_level":"mid",` +
		`"hourly_rate":"10.00","bio":"","portfolio_links":[],"rating":0}}`
)

type clientState struct {
	client *skillsync.Client
	store  *tokenstore.RedisStore
}

func main() {
	var (
		clients     = flag.Int("clients", 64, "number of independent clients (one credential key each)")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (reload + mixed)")
		apiDelay    = flag.Duration("api-delay", time.Millisecond, "artificial latency of the stub API")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "skillsync:loadtest", "credential key prefix")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	api := httptest.NewServer(stubAPI(*apiDelay))
	defer api.Close()

	// Every client reports into one reader; the summary sums across them.
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	states := make([]clientState, *clients)
	fmt.Printf("building %d clients...\n", *clients)
	startSeed := time.Now()
	for i := range states {
		store := tokenstore.NewRedisStore(rdb, *prefix, fmt.Sprintf("client-%d", i))
		if err := store.Write(ctx, tokenstore.Pair{Access: stubAccess, Refresh: "loadtest-refresh"}); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}

		cfg := skillsync.DefaultConfig()
		cfg.API.BaseURL = api.URL
		cfg.Metrics.Enabled = true
		cfg.Metrics.EnableLatencyHistograms = true
		client, err := skillsync.New().WithConfig(cfg).WithStore(store).Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
			os.Exit(1)
		}
		defer client.Close()

		exporter, err := otelexport.NewOTelExporter(provider.Meter(fmt.Sprintf("skillsync/client-%d", i)), client)
		if err != nil {
			fmt.Fprintf(os.Stderr, "metrics exporter failed: %v\n", err)
			os.Exit(1)
		}
		defer exporter.Close()

		if err := client.Bootstrap(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = clientState{client: client, store: store}
	}
	fmt.Printf("bootstrapped in %s\n", time.Since(startSeed).Round(time.Millisecond))

	reloadStats := runReloadPhase(ctx, states, *ops, *concurrency)
	mixedStats := runMixedPhase(ctx, states, *ops, *concurrency)
	mismatches := checkConsistency(ctx, states)

	fmt.Println("---- results ----")
	printStats("reload", reloadStats)
	printStats("mixed", mixedStats)
	if err := printSummary(ctx, reader); err != nil {
		fmt.Fprintf(os.Stderr, "metrics collection failed: %v\n", err)
	}
	fmt.Printf("consistency: clients=%d mismatches=%d\n", len(states), mismatches)
	if mismatches > 0 {
		os.Exit(1)
	}
}

// runReloadPhase re-resolves sessions whose credentials never change.
func runReloadPhase(ctx context.Context, states []clientState, ops, concurrency int) phaseStats {
	return runPhase(states, ops, concurrency, 7919, func(_ *rand.Rand, st clientState) error {
		return st.client.Reload(ctx)
	})
}

// runMixedPhase interleaves login, reload and logout on the same clients so
// that results of superseded operations have to be discarded.
func runMixedPhase(ctx context.Context, states []clientState, ops, concurrency int) phaseStats {
	return runPhase(states, ops, concurrency, 6151, func(r *rand.Rand, st clientState) error {
		switch n := r.Intn(10); {
		case n < 4:
			_, err := st.client.Login(ctx, "load@example.com", "secret")
			if errors.Is(err, skillsync.ErrSessionChanged) {
				return nil
			}
			return err
		case n < 8:
			return st.client.Reload(ctx)
		default:
			return st.client.Logout(ctx)
		}
	})
}

func runPhase(states []clientState, ops, concurrency int, seed int64, op func(*rand.Rand, clientState) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				st := states[r.Intn(len(states))]
				t0 := time.Now()
				err := op(r, st)
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

// checkConsistency compares every settled session with its stored
// credentials: a signed-in session must have an access token behind it and
// an anonymous one must not.
func checkConsistency(ctx context.Context, states []clientState) int {
	mismatches := 0
	for i, st := range states {
		snap := st.client.Snapshot()
		pair, err := st.store.Read(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "client-%d: read failed: %v\n", i, err)
			mismatches++
			continue
		}
		switch {
		case snap.State == session.Authenticated && !pair.HasAccess():
			fmt.Fprintf(os.Stderr, "client-%d: authenticated without credentials (version %d)\n", i, snap.Version)
			mismatches++
		case snap.State == session.Anonymous && pair.HasAccess():
			fmt.Fprintf(os.Stderr, "client-%d: anonymous with stored credentials (version %d)\n", i, snap.Version)
			mismatches++
		}
	}
	return mismatches
}

func stubAPI(delay time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		user := stubMe[len(`{"user":`):strings.Index(stubMe, `,"profile"`)]
		_, _ = fmt.Fprintf(w, `{"access":%q,"refresh":"loadtest-refresh","user":%s}`, stubAccess, user)
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+stubAccess {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
			return
		}
		_, _ = io.WriteString(w, stubMe)
	})
	return mux
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

// printSummary collects once through the OTel reader and sums each series
// over all clients.
func printSummary(ctx context.Context, reader sdkmetric.Reader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}

	totals := make(map[string]int64)
	states := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				if m.Name != "skillsync_session_state" {
					continue
				}
				for _, dp := range data.DataPoints {
					if v, ok := dp.Attributes.Value("state"); ok {
						states[v.AsString()] += dp.Value
					}
				}
			}
		}
	}

	fmt.Printf("counters: logins=%d reloads=%d stale_dropped=%d gateway_failures=%d audit_dropped=%d\n",
		totals["skillsync_login_success_total"],
		totals["skillsync_reload_total"],
		totals["skillsync_stale_result_dropped_total"],
		totals["skillsync_gateway_failure_total"],
		totals["skillsync_audit_dropped_total"],
	)
	fmt.Printf("sessions: authenticated=%d anonymous=%d unresolved=%d\n",
		states[session.Authenticated.String()],
		states[session.Anonymous.String()],
		states[session.Unresolved.String()],
	)
	return nil
}
