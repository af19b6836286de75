//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/skillsync"
	"github.com/MrEthical07/skillsync/tokenstore"
)

const (
	testPrefix = "skillsync:it"

	meBody = `{"user":{"id":5,"username":"fran","email":"fran@example.com","role":"freelancer"},` +
		`"profile":{"id":8,"user":5,"name":"Fran","skills":["go"],"experience_level":"senior",` +
		`"hourly_rate":"45.00","bio":"","portfolio_links":[],"rating":4.5}}`
	userBody = `{"id":5,"username":"fran","email":"fran@example.com","role":"freelancer"}`
)

var signingKey = []byte("integration-secret")

func newIntegrationRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// backend is a SkillSync API double issuing signed tokens whose exp follows
// clock. It accepts any access token it issued until that token expires.
type backend struct {
	srv   *httptest.Server
	clock clockwork.Clock
	ttl   time.Duration

	mu       sync.Mutex
	issued   int
	refresh  map[string]bool
	meCalls  int
	refreshN int
}

func newBackend(t *testing.T, clock clockwork.Clock) *backend {
	t.Helper()
	b := &backend{clock: clock, ttl: 5 * time.Minute, refresh: make(map[string]bool)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct-horse" {
			writeBody(w, http.StatusBadRequest, `{"non_field_errors":["Invalid credentials"]}`)
			return
		}
		access, refresh := b.issue(true)
		writeBody(w, http.StatusOK, fmt.Sprintf(`{"access":%q,"refresh":%q,"user":%s}`, access, refresh, userBody))
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusCreated, `{"id":6,"username":"new","email":"new@example.com","role":"client"}`)
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		ok := b.refresh[body["refresh"]]
		b.refreshN++
		b.mu.Unlock()
		if !ok {
			writeBody(w, http.StatusUnauthorized, `{"detail":"Token is invalid or expired","code":"token_not_valid"}`)
			return
		}
		access, _ := b.issue(false)
		writeBody(w, http.StatusOK, fmt.Sprintf(`{"access":%q}`, access))
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.meCalls++
		b.mu.Unlock()
		if !b.valid(r.Header.Get("Authorization")) {
			writeBody(w, http.StatusUnauthorized, `{"detail":"Given token not valid for any token type","code":"token_not_valid"}`)
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeBody(w, http.StatusOK, meBody)
		case http.MethodPut:
			var body struct {
				Profile map[string]any `json:"profile"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			bio, _ := body.Profile["bio"].(string)
			writeBody(w, http.StatusOK, fmt.Sprintf(`{"profile":{"id":8,"user":5,"name":"Fran","skills":["go"],`+
				`"experience_level":"senior","hourly_rate":"45.00","bio":%q,"portfolio_links":[],"rating":4.5}}`, bio))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) issue(withRefresh bool) (string, string) {
	b.mu.Lock()
	b.issued++
	n := b.issued
	b.mu.Unlock()

	access := b.sign(b.clock.Now().Add(b.ttl), n)
	if !withRefresh {
		return access, ""
	}
	refresh := fmt.Sprintf("refresh-%d", n)
	b.mu.Lock()
	b.refresh[refresh] = true
	b.mu.Unlock()
	return access, refresh
}

func (b *backend) sign(exp time.Time, n int) string {
	token := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"token_type": "access",
		"user_id":    5,
		"jti":        fmt.Sprintf("jti-%d", n),
		"exp":        exp.Unix(),
	})
	signed, err := token.SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}

func (b *backend) valid(header string) bool {
	const pfx = "Bearer "
	if len(header) <= len(pfx) || header[:len(pfx)] != pfx {
		return false
	}
	_, err := gjwt.Parse(header[len(pfx):], func(*gjwt.Token) (any, error) { return signingKey, nil },
		gjwt.WithValidMethods([]string{gjwt.SigningMethodHS256.Alg()}),
		gjwt.WithTimeFunc(b.clock.Now),
	)
	return err == nil
}

func (b *backend) meCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meCalls
}

func (b *backend) refreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshN
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// newRedisClient builds a Client on the redis backend under namespace.
// configure adjusts the config before mutate sees the Builder; both may be nil.
func newRedisClient(t *testing.T, api *backend, rdb *redis.Client, namespace string, configure func(*skillsync.Config), mutate func(*skillsync.Builder)) *skillsync.Client {
	t.Helper()

	cfg := skillsync.DefaultConfig()
	cfg.API.BaseURL = api.srv.URL
	cfg.Storage.Backend = skillsync.StorageRedis
	cfg.Storage.RedisPrefix = testPrefix
	cfg.Storage.RedisNamespace = namespace
	cfg.Metrics.Enabled = true
	if configure != nil {
		configure(&cfg)
	}

	b := skillsync.New().WithConfig(cfg).WithRedis(rdb)
	if mutate != nil {
		mutate(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func storedPair(t *testing.T, mr *miniredis.Miniredis, namespace string) tokenstore.Pair {
	t.Helper()
	key := testPrefix + ":" + namespace
	if !mr.Exists(key) {
		return tokenstore.Pair{}
	}
	return tokenstore.Pair{
		Access:  mr.HGet(key, tokenstore.Keys.Access),
		Refresh: mr.HGet(key, tokenstore.Keys.Refresh),
	}
}
