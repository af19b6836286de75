package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrEthical07/skillsync/tokenstore"
)

// LoginMetrics carries metric IDs used by the login flow.
type LoginMetrics struct {
	LoginSuccess int
	LoginFailure int
}

// LoginDeps captures login dependencies. Tokens.Write is expected to start a
// new session generation when it succeeds.
type LoginDeps struct {
	API      API
	Path     string
	Tokens   TokenOps
	Identity IdentityDeps

	MetricInc func(int)
	Metrics   LoginMetrics
	Errors    Errors
}

// LoginStage is how far a login got.
type LoginStage string

const (
	StageRejected   LoginStage = "rejected"
	StageStore      LoginStage = "store"
	StageIdentity   LoginStage = "identity"
	StageSuperseded LoginStage = "superseded"
	StageComplete   LoginStage = "complete"
)

// LoginResult reports a login attempt. Identity is set only for
// StageComplete. Cleared is set when credentials written by this login were
// removed again after the identity fetch failed.
type LoginResult struct {
	Stage    LoginStage
	Identity *Identity
	Cleared  bool
	Err      error
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Access       string          `json:"access"`
	Refresh      string          `json:"refresh"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user"`
}

func (r loginResponse) pair() tokenstore.Pair {
	p := tokenstore.Pair{Access: r.Access, Refresh: r.Refresh}
	if p.Access == "" {
		p.Access = r.AccessToken
	}
	if p.Refresh == "" {
		p.Refresh = r.RefreshToken
	}
	return p
}

// RunLogin exchanges credentials for tokens, stores them and resolves the
// identity they belong to. Until the tokens are written nothing is changed:
// a rejected login leaves the store exactly as it was.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) LoginResult {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.API == nil || !deps.Tokens.ready() {
		return LoginResult{Stage: StageRejected, Err: deps.Errors.ClientNotReady}
	}
	path := deps.Path
	if path == "" {
		path = DefaultPaths.Login
	}

	resp, err := deps.API.Request(ctx, http.MethodPost, path, loginRequest{
		Identifier: strings.TrimSpace(identifier),
		Password:   password,
	}, false)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return LoginResult{Stage: StageRejected, Err: err}
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return LoginResult{Stage: StageRejected, Err: fmt.Errorf("%w: %v", deps.Errors.MalformedResponse, err)}
	}
	pair := body.pair()
	if !pair.HasAccess() {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return LoginResult{Stage: StageRejected, Err: fmt.Errorf("%w: login response has no access token", deps.Errors.MalformedResponse)}
	}

	skipped, err := deps.Tokens.Write(ctx, pair)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return LoginResult{Stage: StageStore, Err: fmt.Errorf("write credentials: %w", err)}
	}
	if skipped {
		return LoginResult{Stage: StageSuperseded}
	}

	id, err := RunIdentityFetch(ctx, deps.Identity)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		res := LoginResult{Stage: StageIdentity, Err: err}
		skipped, clearErr := deps.Tokens.Clear(ctx)
		switch {
		case clearErr != nil:
			res.Err = fmt.Errorf("%w (clear credentials: %v)", err, clearErr)
		case !skipped:
			res.Cleared = true
		}
		return res
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	return LoginResult{Stage: StageComplete, Identity: id}
}
