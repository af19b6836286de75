package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/MrEthical07/skillsync/tokenstore"
)

type failingReader struct{}

func (failingReader) Read(context.Context) (tokenstore.Pair, error) {
	return tokenstore.Pair{}, tokenstore.ErrUnavailable
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, tokens TokenReader, opts ...Option) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", tokens, opts...)
}

func TestRequestAttachesBearerWhenRequired(t *testing.T) {
	var gotAuth, gotType, gotAccept, gotPath string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"ok":true}`)
	}, tokenstore.NewMemoryStore(tokenstore.Pair{Access: "abc", Refresh: "def"}))

	resp, err := g.Request(context.Background(), http.MethodGet, "/auth/me", nil, true)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotType != "application/json" || gotAccept != "application/json" {
		t.Fatalf("content headers = %q / %q", gotType, gotAccept)
	}
	if gotPath != "/api/auth/me" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestRequestOmitsBearerWhenNotRequired(t *testing.T) {
	var gotAuth string
	var gotType string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}, tokenstore.NewMemoryStore(tokenstore.Pair{Access: "abc"}))

	if _, err := g.Request(context.Background(), http.MethodPost, "auth/login", map[string]string{"identifier": "a"}, false); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q", gotType)
	}
}

func TestRequestMissingTokenDoesNotBlock(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Authentication credentials were not provided."}`)
	}, tokenstore.NewMemoryStore(tokenstore.Pair{}))

	_, err := g.Request(context.Background(), http.MethodGet, "/auth/me", nil, true)
	if calls != 1 {
		t.Fatalf("expected the call to reach the server, calls=%d", calls)
	}
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if err.Error() != "Authentication credentials were not provided." {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestRequestStoreFailureSendsAnonymously(t *testing.T) {
	var gotAuth string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, failingReader{})

	if _, err := g.Request(context.Background(), http.MethodGet, "/auth/me", nil, true); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestRequestSerializesBody(t *testing.T) {
	var got map[string]string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_, _ = io.WriteString(w, `{"access":"a","refresh":"r"}`)
	}, nil)

	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	err := g.DoJSON(context.Background(), http.MethodPost, "/auth/login",
		map[string]string{"identifier": "ana", "password": "pw"}, &out, false)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if got["identifier"] != "ana" || got["password"] != "pw" {
		t.Fatalf("server saw %v", got)
	}
	if out.Access != "a" || out.Refresh != "r" {
		t.Fatalf("decoded %+v", out)
	}
}

func TestRequestNormalizesServerErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "field errors", status: http.StatusBadRequest, body: `{"email": ["This field is required."]}`, want: "This field is required."},
		{name: "detail", status: http.StatusUnauthorized, body: `{"detail":"Invalid credentials"}`, want: "Invalid credentials"},
		{name: "empty body", status: http.StatusInternalServerError, body: ``, want: DefaultMessage},
		{name: "html body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: DefaultMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}, nil)

			resp, err := g.Request(context.Background(), http.MethodGet, "/x", nil, false)
			if resp != nil {
				t.Fatalf("expected nil response on failure")
			}
			gwErr, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if gwErr.Kind != KindServer || gwErr.Status != tc.status {
				t.Fatalf("kind=%s status=%d", gwErr.Kind, gwErr.Status)
			}
			if gwErr.Message != tc.want || err.Error() != tc.want {
				t.Fatalf("message = %q, want %q", gwErr.Message, tc.want)
			}
		})
	}
}

func TestRequestToleratesEmptySuccessBody(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	resp, err := g.Request(context.Background(), http.MethodDelete, "/x", nil, false)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp.Body != nil {
		t.Fatalf("expected nil body, got %s", resp.Body)
	}
	if err := resp.Decode(&struct{}{}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("Decode err = %v", err)
	}
}

func TestRequestToleratesNonJSONSuccessBody(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "plain text")
	}, nil)

	resp, err := g.Request(context.Background(), http.MethodGet, "/x", nil, false)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp.Body != nil {
		t.Fatalf("expected nil body, got %s", resp.Body)
	}
}

func TestRequestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := New(url, nil)
	_, err := g.Request(context.Background(), http.MethodGet, "/auth/me", nil, false)
	gwErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if gwErr.Kind != KindTransport || gwErr.Status != 0 {
		t.Fatalf("kind=%s status=%d", gwErr.Kind, gwErr.Status)
	}
	if gwErr.Message != DefaultMessage {
		t.Fatalf("message = %q", gwErr.Message)
	}
	if errors.Unwrap(err) == nil {
		t.Fatalf("expected the transport cause to be wrapped")
	}
}

func TestRequestCancelledContext(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Request(ctx, http.MethodGet, "/x", nil, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if gwErr, _ := AsError(err); gwErr == nil || gwErr.Kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestRequestEncodeFailure(t *testing.T) {
	g := New("http://127.0.0.1:1", nil)
	_, err := g.Request(context.Background(), http.MethodPost, "/x", map[string]any{"c": make(chan int)}, false)
	gwErr, ok := AsError(err)
	if !ok || gwErr.Kind != KindEncode {
		t.Fatalf("expected encode error, got %v", err)
	}
}

func TestRequestObserverAndHeaders(t *testing.T) {
	var gotID, gotUA string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(HeaderRequestID)
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusTeapot)
	}, nil,
		WithUserAgent("skillsync-test"),
		WithRequestIDFunc(func() string { return "req-1" }),
	)

	var mu sync.Mutex
	var infos []RequestInfo
	g.observer = func(info RequestInfo) {
		mu.Lock()
		defer mu.Unlock()
		infos = append(infos, info)
	}

	_, err := g.Request(context.Background(), http.MethodGet, "/x", nil, false)
	if err == nil {
		t.Fatalf("expected error")
	}
	if gotID != "req-1" || gotUA != "skillsync-test" {
		t.Fatalf("headers id=%q ua=%q", gotID, gotUA)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(infos) != 1 {
		t.Fatalf("observer calls = %d", len(infos))
	}
	info := infos[0]
	if info.Status != http.StatusTeapot || info.RequestID != "req-1" || info.Err == nil {
		t.Fatalf("unexpected info %+v", info)
	}
	if gwErr, _ := AsError(err); gwErr.RequestID != "req-1" {
		t.Fatalf("error request id = %q", gwErr.RequestID)
	}
}

func TestNewDefaultsBaseURL(t *testing.T) {
	if got := New("  ", nil).BaseURL(); got != DefaultBaseURL {
		t.Fatalf("BaseURL = %q", got)
	}
	if got := New("http://h/api///", nil).BaseURL(); got != "http://h/api" {
		t.Fatalf("BaseURL = %q", got)
	}
	if !strings.HasPrefix(New("http://h", nil).url("x"), "http://h/x") {
		t.Fatalf("url join failed")
	}
}
