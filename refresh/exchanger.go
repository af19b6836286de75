package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/skillsync/gateway"
	"github.com/MrEthical07/skillsync/tokenstore"
)

// DefaultPath is the API's refresh endpoint, relative to the base URL.
const DefaultPath = "/auth/refresh"

var (
	// ErrNoRefreshToken is returned when Exchange is called with an empty token.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrInvalidResponse is returned when the server accepts the exchange but
	// sends back no access token.
	ErrInvalidResponse = errors.New("refresh response carries no access token")
)

// Exchanger trades a refresh token for new credentials. The returned pair
// always has an access token; its refresh token is empty unless the server
// rotated it.
type Exchanger interface {
	Exchange(ctx context.Context, refreshToken string) (tokenstore.Pair, error)
}

// Requester is the slice of the gateway an exchanger needs.
type Requester interface {
	Request(ctx context.Context, method, path string, body any, requiresAuth bool) (*gateway.Response, error)
}

// SimpleJWT posts {"refresh": ...} and reads {"access": ..., "refresh": ...}.
// Concurrent exchanges of the same refresh token share one request.
type SimpleJWT struct {
	api    Requester
	path   string
	logger *slog.Logger
	group  singleflight.Group
}

// NewSimpleJWT returns an exchanger posting to DefaultPath through api.
func NewSimpleJWT(api Requester, logger *slog.Logger) *SimpleJWT {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SimpleJWT{api: api, path: DefaultPath, logger: logger}
}

// WithPath overrides the endpoint path.
func (s *SimpleJWT) WithPath(path string) *SimpleJWT {
	if strings.TrimSpace(path) != "" {
		s.path = path
	}
	return s
}

type exchangeRequest struct {
	Refresh string `json:"refresh"`
}

type exchangeResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (s *SimpleJWT) Exchange(ctx context.Context, refreshToken string) (tokenstore.Pair, error) {
	if refreshToken == "" {
		return tokenstore.Pair{}, ErrNoRefreshToken
	}

	v, err, shared := s.group.Do(refreshToken, func() (any, error) {
		resp, err := s.api.Request(ctx, http.MethodPost, s.path, exchangeRequest{Refresh: refreshToken}, false)
		if err != nil {
			return tokenstore.Pair{}, err
		}
		var body exchangeResponse
		if err := resp.Decode(&body); err != nil {
			return tokenstore.Pair{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if body.Access == "" {
			return tokenstore.Pair{}, ErrInvalidResponse
		}
		return tokenstore.Pair{Access: body.Access, Refresh: body.Refresh}, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "refresh exchange failed", "shared", shared, "error", err)
		return tokenstore.Pair{}, err
	}

	pair := v.(tokenstore.Pair)
	s.logger.DebugContext(ctx, "refresh exchange succeeded", "shared", shared, "rotated", pair.HasRefresh())
	return pair, nil
}
