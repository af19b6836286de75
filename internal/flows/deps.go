package flows

import (
	"context"

	"github.com/MrEthical07/skillsync/gateway"
	"github.com/MrEthical07/skillsync/tokenstore"
)

// API is the gateway surface flows call.
type API interface {
	Request(ctx context.Context, method, path string, body any, requiresAuth bool) (*gateway.Response, error)
}

// Paths are the API endpoints relative to the base URL.
type Paths struct {
	Login    string
	Register string
	Me       string
}

// DefaultPaths matches the SkillSync API.
var DefaultPaths = Paths{
	Login:    "/auth/login",
	Register: "/auth/register",
	Me:       "/auth/me",
}

// Errors carries host-level sentinel errors used by flows.
type Errors struct {
	ClientNotReady     error
	MalformedResponse  error
	NotAuthenticated   error
	RefreshUnavailable error
}

// TokenOps is the token store surface flows use. Write and Clear may be
// guarded by the caller and report skipped=true when the operation was
// superseded and nothing was written.
type TokenOps struct {
	Read  func(context.Context) (tokenstore.Pair, error)
	Write func(context.Context, tokenstore.Pair) (skipped bool, err error)
	Clear func(context.Context) (skipped bool, err error)
}

func (o TokenOps) ready() bool {
	return o.Read != nil && o.Write != nil && o.Clear != nil
}

func noopMetric(int) {}
