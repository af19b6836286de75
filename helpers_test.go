package skillsync

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MrEthical07/skillsync/tokenstore"
)

const (
	meClient = `{"user":{"id":7,"username":"acme","email":"ops@acme.test","role":"client"},` +
		`"profile":{"id":2,"user":7,"company_name":"Acme","name":"Ada"}}`
	meFreelancer = `{"user":{"id":3,"username":"fl","email":"fl@example.com","role":"freelancer"},` +
		`"profile":{"id":9,"user":3,"name":"Fran","skills":["go"],"experience_level":"senior","hourly_rate":"45.00","bio":"","portfolio_links":[],"rating":4.5}}`
)

type fakeAPI struct {
	srv *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		h, ok := f.routes[key]
		f.hits[key]++
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) handle(route string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes[route] = h
	f.mu.Unlock()
}

func (f *fakeAPI) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[route]
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// meFor answers /auth/me with body when the bearer matches token and 401
// otherwise.
func meFor(token, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			respond(http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`)(w, r)
			return
		}
		respond(http.StatusOK, body)(w, r)
	}
}

func newTestClient(t *testing.T, api *fakeAPI, initial tokenstore.Pair, mutate func(*Builder)) (*Client, *tokenstore.MemoryStore) {
	t.Helper()
	store := tokenstore.NewMemoryStore(initial)

	cfg := DefaultConfig()
	cfg.API.BaseURL = api.srv.URL
	cfg.Metrics.Enabled = true

	b := New().WithConfig(cfg).WithStore(store)
	if mutate != nil {
		mutate(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(c.Close)
	return c, store
}
