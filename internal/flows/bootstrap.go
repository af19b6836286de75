package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/skillsync/tokenstore"
)

// BootstrapOutcome names why a resolution ended where it did.
type BootstrapOutcome string

const (
	OutcomeAuthenticated  BootstrapOutcome = "authenticated"
	OutcomeNoCredentials  BootstrapOutcome = "no_credentials"
	OutcomeIdentityFailed BootstrapOutcome = "identity_failed"
	OutcomeRefreshFailed  BootstrapOutcome = "refresh_failed"
	OutcomeStoreFailed    BootstrapOutcome = "store_failed"
)

// BootstrapMetrics carries metric IDs used by the bootstrap flow.
type BootstrapMetrics struct {
	RefreshSuccess int
	RefreshFailure int
}

// BootstrapDeps captures credential resolution dependencies.
type BootstrapDeps struct {
	Tokens   TokenOps
	Identity IdentityDeps

	// NeedsExchange and Exchange are both nil when refresh is disabled.
	NeedsExchange func(tokenstore.Pair) bool
	Exchange      func(context.Context, string) (tokenstore.Pair, error)

	MetricInc func(int)
	Metrics   BootstrapMetrics
	Errors    Errors
}

// BootstrapResult is the resolution the Client should apply. Identity is nil
// for every outcome except OutcomeAuthenticated.
type BootstrapResult struct {
	Outcome   BootstrapOutcome
	Identity  *Identity
	Refreshed bool
	// Cleared is set when the stored credentials were removed.
	Cleared bool
	// Superseded is set when a guarded store operation was skipped because a
	// newer operation took over.
	Superseded bool

	// FetchErr is the cause of an identity or refresh failure. It is absorbed:
	// the session simply resolves anonymous.
	FetchErr error
	// StoreErr is a token store failure; it is the only error surfaced to the
	// caller.
	StoreErr error
}

// RunBootstrap resolves stored credentials into an identity or an anonymous
// session. It never leaves the decision open: every path returns an outcome.
func RunBootstrap(ctx context.Context, deps BootstrapDeps) BootstrapResult {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if !deps.Tokens.ready() {
		return BootstrapResult{Outcome: OutcomeStoreFailed, StoreErr: deps.Errors.ClientNotReady}
	}

	pair, err := deps.Tokens.Read(ctx)
	if err != nil {
		res := BootstrapResult{Outcome: OutcomeStoreFailed, StoreErr: fmt.Errorf("read credentials: %w", err)}
		return clearAfterFailure(ctx, deps, res)
	}

	refreshed := false
	if deps.NeedsExchange != nil && deps.Exchange != nil && deps.NeedsExchange(pair) {
		next, err := deps.Exchange(ctx, pair.Refresh)
		if err != nil {
			deps.MetricInc(deps.Metrics.RefreshFailure)
			res := BootstrapResult{Outcome: OutcomeRefreshFailed, FetchErr: err}
			return clearAfterFailure(ctx, deps, res)
		}
		deps.MetricInc(deps.Metrics.RefreshSuccess)

		skipped, err := deps.Tokens.Write(ctx, next)
		if err != nil {
			res := BootstrapResult{Outcome: OutcomeStoreFailed, StoreErr: fmt.Errorf("write refreshed credentials: %w", err)}
			return clearAfterFailure(ctx, deps, res)
		}
		if skipped {
			return BootstrapResult{Outcome: OutcomeRefreshFailed, Superseded: true}
		}
		pair = pair.Merge(next)
		refreshed = true
	}

	if !pair.HasAccess() {
		return BootstrapResult{Outcome: OutcomeNoCredentials, Refreshed: refreshed}
	}

	id, err := RunIdentityFetch(ctx, deps.Identity)
	if err != nil {
		res := BootstrapResult{Outcome: OutcomeIdentityFailed, Refreshed: refreshed, FetchErr: err}
		return clearAfterFailure(ctx, deps, res)
	}
	return BootstrapResult{Outcome: OutcomeAuthenticated, Identity: id, Refreshed: refreshed}
}

func clearAfterFailure(ctx context.Context, deps BootstrapDeps, res BootstrapResult) BootstrapResult {
	skipped, err := deps.Tokens.Clear(ctx)
	switch {
	case err != nil:
		res.StoreErr = errors.Join(res.StoreErr, fmt.Errorf("clear credentials: %w", err))
	case skipped:
		res.Superseded = true
	default:
		res.Cleared = true
	}
	return res
}
