package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/skillsync/tokenstore"
)

// RotateDeps captures explicit refresh-token exchange dependencies.
type RotateDeps struct {
	Tokens   TokenOps
	Exchange func(context.Context, string) (tokenstore.Pair, error)

	MetricInc func(int)
	Metrics   BootstrapMetrics
	Errors    Errors
}

// RotateResult reports an explicit exchange. Superseded is set when the new
// credentials were not stored because a newer operation took over.
type RotateResult struct {
	Tokens     tokenstore.Pair
	Superseded bool
}

// RunRotate trades the stored refresh token for fresh credentials and stores
// them. The session itself is not touched.
func RunRotate(ctx context.Context, deps RotateDeps) (RotateResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.Exchange == nil {
		return RotateResult{}, deps.Errors.RefreshUnavailable
	}
	if !deps.Tokens.ready() {
		return RotateResult{}, deps.Errors.ClientNotReady
	}

	pair, err := deps.Tokens.Read(ctx)
	if err != nil {
		return RotateResult{}, fmt.Errorf("read credentials: %w", err)
	}
	if !pair.HasRefresh() {
		return RotateResult{}, deps.Errors.RefreshUnavailable
	}

	next, err := deps.Exchange(ctx, pair.Refresh)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		return RotateResult{}, err
	}
	deps.MetricInc(deps.Metrics.RefreshSuccess)

	skipped, err := deps.Tokens.Write(ctx, next)
	if err != nil {
		return RotateResult{}, fmt.Errorf("write refreshed credentials: %w", err)
	}
	return RotateResult{Tokens: pair.Merge(next), Superseded: skipped}, nil
}
