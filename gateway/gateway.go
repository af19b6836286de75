package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/skillsync/tokenstore"
)

const (
	// DefaultBaseURL is used when no API base URL is configured.
	DefaultBaseURL = "http://localhost:8000/api"

	// HeaderRequestID carries the per-call correlation id.
	HeaderRequestID = "X-Request-ID"

	maxBodyBytes = 4 << 20
)

// TokenReader is the read side of a credential store.
type TokenReader interface {
	Read(ctx context.Context) (tokenstore.Pair, error)
}

// RequestInfo describes one completed call for observers.
type RequestInfo struct {
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	RequestID string
	Err       error
}

// Observer is notified after every call, successful or not.
type Observer func(RequestInfo)

// Response is a successful call. Body is nil when the server sent no JSON.
type Response struct {
	Status    int
	Header    http.Header
	Body      json.RawMessage
	RequestID string
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(r.Body, v)
}

// Gateway issues SkillSync API calls. It is safe for concurrent use.
type Gateway struct {
	baseURL   string
	client    *http.Client
	tokens    TokenReader
	logger    *slog.Logger
	observer  Observer
	userAgent string
	requestID func() string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.client = c
		}
	}
}

// WithLogger sets the logger used for per-call records.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver registers a per-call observer.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithUserAgent sets the User-Agent header on every call.
func WithUserAgent(ua string) Option {
	return func(g *Gateway) { g.userAgent = ua }
}

// WithRequestIDFunc overrides request id generation.
func WithRequestIDFunc(fn func() string) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.requestID = fn
		}
	}
}

// New returns a gateway rooted at baseURL that reads bearer credentials from
// tokens. tokens may be nil, in which case no credential is ever attached.
func New(baseURL string, tokens TokenReader, opts ...Option) *Gateway {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	g := &Gateway{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens:    tokens,
		logger:    slog.New(slog.DiscardHandler),
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BaseURL returns the API root every path is appended to.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Request sends one call. A non-nil body is serialized as JSON. When
// requiresAuth is set and an access token is stored it is sent as a bearer
// credential; when none is stored the call goes out without one.
//
// Every failure is returned as a *Error: non-success statuses carry the
// normalized server message, transport failures carry DefaultMessage.
func (g *Gateway) Request(ctx context.Context, method, path string, body any, requiresAuth bool) (*Response, error) {
	start := time.Now()
	requestID := g.requestID()

	resp, err := g.do(ctx, method, path, body, requiresAuth, requestID)

	info := RequestInfo{
		Method:    method,
		Path:      path,
		Duration:  time.Since(start),
		RequestID: requestID,
		Err:       err,
	}
	if resp != nil {
		info.Status = resp.Status
	} else if gwErr, ok := AsError(err); ok {
		info.Status = gwErr.Status
	}
	g.record(ctx, info)

	return resp, err
}

// DoJSON sends a call and decodes a successful body into out. out may be nil.
func (g *Gateway) DoJSON(ctx context.Context, method, path string, in, out any, requiresAuth bool) error {
	resp, err := g.Request(ctx, method, path, in, requiresAuth)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (g *Gateway) do(ctx context.Context, method, path string, body any, requiresAuth bool, requestID string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindEncode, Message: DefaultMessage, RequestID: requestID, err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.url(path), reader)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: DefaultMessage, RequestID: requestID, err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	if requiresAuth {
		if token := g.accessToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: DefaultMessage, RequestID: requestID, err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Status: httpResp.StatusCode, Message: DefaultMessage, RequestID: requestID, err: err}
	}
	decoded := decodeBody(raw)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &Error{
			Kind:      KindServer,
			Status:    httpResp.StatusCode,
			Message:   NormalizeMessage(decoded),
			RequestID: requestID,
			Body:      decoded,
		}
	}

	return &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      decoded,
		RequestID: requestID,
	}, nil
}

func (g *Gateway) url(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + path
}

func (g *Gateway) accessToken(ctx context.Context) string {
	if g.tokens == nil {
		return ""
	}
	pair, err := g.tokens.Read(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "token store read failed; sending without credential", "error", err)
		return ""
	}
	return pair.Access
}

func (g *Gateway) record(ctx context.Context, info RequestInfo) {
	attrs := []any{
		"method", info.Method,
		"path", info.Path,
		"status", info.Status,
		"duration", info.Duration,
		"request_id", info.RequestID,
	}
	if info.Err != nil {
		kind := "unknown"
		if gwErr, ok := AsError(info.Err); ok {
			kind = gwErr.Kind.String()
		}
		g.logger.WarnContext(ctx, "api request failed", append(attrs, "kind", kind, "error", info.Err)...)
	} else {
		g.logger.DebugContext(ctx, "api request", attrs...)
	}

	if g.observer != nil {
		g.observer(info)
	}
}

// decodeBody returns raw when it is a JSON document and nil otherwise, so an
// empty or HTML body reads as absent instead of failing the call.
func decodeBody(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return json.RawMessage(raw)
}
