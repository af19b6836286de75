package flows

import (
	"context"
	"encoding/json"
	"net/http"
)

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	API    API
	Path   string
	Errors Errors
}

// RunRegister creates an account. It never touches credentials or the
// session; the caller logs in separately.
func RunRegister(ctx context.Context, payload any, deps RegisterDeps) (json.RawMessage, error) {
	if deps.API == nil {
		return nil, deps.Errors.ClientNotReady
	}
	path := deps.Path
	if path == "" {
		path = DefaultPaths.Register
	}
	resp, err := deps.API.Request(ctx, http.MethodPost, path, payload, false)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
