package skillsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/skillsync/internal/flows"
	"github.com/MrEthical07/skillsync/session"
	"github.com/MrEthical07/skillsync/tokenstore"
)

// Bootstrap resolves the stored credentials once per Client. With no access
// token the session becomes Anonymous without a network call; otherwise the
// identity is fetched and any failure clears the store and resolves
// Anonymous. The session is always resolved when Bootstrap returns, and the
// only error reported is a token store failure.
//
// Calls after the first, or after Login or Logout already resolved the
// session, do nothing.
func (c *Client) Bootstrap(ctx context.Context) error {
	if c == nil || c.container == nil {
		return ErrClientNotReady
	}
	var err error
	c.bootstrapOnce.Do(func() {
		if c.container.Snapshot().Resolved() {
			return
		}
		err = c.resolve(ctx, auditEventBootstrap)
	})
	return err
}

// Reload fetches the identity again with the stored credentials, exactly as
// Bootstrap does, including clearing them when the fetch fails. Concurrent
// reloads within one generation share a single fetch.
func (c *Client) Reload(ctx context.Context) error {
	if c == nil || c.container == nil {
		return ErrClientNotReady
	}
	key := strconv.FormatUint(c.container.Generation(), 10)
	_, err, _ := c.reloads.Do(key, func() (any, error) {
		c.metricInc(MetricReload)
		return nil, c.resolve(ctx, auditEventReload)
	})
	return err
}

func (c *Client) resolve(ctx context.Context, op string) error {
	gen := c.container.Generation()

	fetchCtx := ctx
	if d := c.config.Session.BootstrapTimeout; d > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	needsExchange, exchange := c.refreshHooks()
	res := flows.RunBootstrap(fetchCtx, flows.BootstrapDeps{
		Tokens:        c.guardedTokens(gen),
		Identity:      c.identityDeps(),
		NeedsExchange: needsExchange,
		Exchange:      exchange,
		MetricInc:     func(id int) { c.metricInc(MetricID(id)) },
		Metrics: flows.BootstrapMetrics{
			RefreshSuccess: int(MetricRefreshSuccess),
			RefreshFailure: int(MetricRefreshFailure),
		},
		Errors: c.flowErrors(),
	})

	if res.Cleared {
		c.metricInc(MetricCredentialsCleared)
	}
	if res.FetchErr != nil {
		c.logger.InfoContext(ctx, "stored credentials rejected", "op", op, "outcome", string(res.Outcome), "error", res.FetchErr)
	}
	if res.StoreErr != nil {
		c.logger.ErrorContext(ctx, "token store failure during resolution", "op", op, "error", res.StoreErr)
	}

	var (
		snap     session.Snapshot
		applyErr error
	)
	switch {
	case res.Outcome == flows.OutcomeAuthenticated:
		snap, applyErr = c.container.Set(gen, session.ToAuthenticated(res.Identity.User, res.Identity.Profile))
	case res.Superseded:
		applyErr = session.ErrStaleGeneration
	default:
		snap, applyErr = c.container.Set(gen, session.ToAnonymous())
	}

	if errors.Is(applyErr, session.ErrStaleGeneration) {
		c.metricInc(MetricStaleResultDropped)
		c.logger.DebugContext(ctx, "dropped superseded resolution", "op", op, "generation", gen)
		return res.StoreErr
	}
	if applyErr != nil {
		return applyErr
	}

	if snap.Authenticated() {
		c.metricInc(MetricBootstrapAuthenticated)
	} else {
		c.metricInc(MetricBootstrapAnonymous)
	}
	c.logger.InfoContext(ctx, "session resolved", "op", op, "state", snap.State.String(), "generation", snap.Generation, "outcome", string(res.Outcome))
	c.emitAudit(ctx, op, snap, res.StoreErr, func() map[string]string {
		return map[string]string{
			"outcome":   string(res.Outcome),
			"refreshed": strconv.FormatBool(res.Refreshed),
			"cleared":   strconv.FormatBool(res.Cleared),
		}
	})
	return res.StoreErr
}

// Login exchanges identifier and password for credentials, stores them and
// resolves the identity they belong to.
//
// A rejected login returns the normalized server error and leaves both the
// session and the token store untouched. If the credentials are accepted but
// the identity fetch fails, they are cleared again, the session becomes
// Anonymous, and the fetch error is returned.
func (c *Client) Login(ctx context.Context, identifier, password string) (*SessionData, error) {
	if c == nil || c.container == nil {
		return nil, ErrClientNotReady
	}

	// loginGen is the generation this login starts when its credentials are
	// written; guarded by storeMu.
	var loginGen uint64
	tokens := flows.TokenOps{
		Read: c.store.Read,
		Write: func(ctx context.Context, p tokenstore.Pair) (bool, error) {
			c.storeMu.Lock()
			defer c.storeMu.Unlock()
			// A new login owns the whole pair; a refresh token left by the
			// previous account must not outlive it.
			if err := c.store.Replace(ctx, p); err != nil {
				return false, err
			}
			loginGen = c.container.Advance()
			return false, nil
		},
		Clear: func(ctx context.Context) (bool, error) {
			c.storeMu.Lock()
			defer c.storeMu.Unlock()
			if !c.container.Current(loginGen) {
				return true, nil
			}
			return false, c.store.Clear(context.WithoutCancel(ctx))
		},
	}

	res := flows.RunLogin(ctx, identifier, password, flows.LoginDeps{
		API:       c.api,
		Tokens:    tokens,
		Identity:  c.identityDeps(),
		MetricInc: func(id int) { c.metricInc(MetricID(id)) },
		Metrics: flows.LoginMetrics{
			LoginSuccess: int(MetricLoginSuccess),
			LoginFailure: int(MetricLoginFailure),
		},
		Errors: c.flowErrors(),
	})

	switch res.Stage {
	case flows.StageRejected, flows.StageStore:
		c.emitAudit(ctx, auditEventLogin, c.container.Snapshot(), res.Err, func() map[string]string {
			return map[string]string{"stage": string(res.Stage)}
		})
		return nil, res.Err

	case flows.StageIdentity:
		if res.Cleared {
			c.metricInc(MetricCredentialsCleared)
		}
		snap, err := c.container.Set(loginGen, session.ToAnonymous())
		if errors.Is(err, session.ErrStaleGeneration) {
			c.metricInc(MetricStaleResultDropped)
			snap = c.container.Snapshot()
		}
		c.logger.WarnContext(ctx, "login identity fetch failed", "generation", loginGen, "error", res.Err)
		c.emitAudit(ctx, auditEventLogin, snap, res.Err, func() map[string]string {
			return map[string]string{"stage": string(res.Stage)}
		})
		return nil, res.Err

	case flows.StageComplete:
		snap, err := c.container.Set(loginGen, session.ToAuthenticated(res.Identity.User, res.Identity.Profile))
		if err != nil {
			err = mapSessionError(err)
			if errors.Is(err, ErrSessionChanged) {
				c.metricInc(MetricStaleResultDropped)
			}
			c.emitAudit(ctx, auditEventLogin, c.container.Snapshot(), err, nil)
			return nil, err
		}
		c.logger.InfoContext(ctx, "login succeeded", "user_id", snap.User.ID, "role", string(snap.User.Role), "generation", snap.Generation)
		c.emitAudit(ctx, auditEventLogin, snap, nil, nil)
		return sessionDataFrom(snap), nil

	default:
		c.metricInc(MetricStaleResultDropped)
		return nil, ErrSessionChanged
	}
}

// Register creates an account. The session is not changed; the caller logs
// in afterwards. The server's response body is returned as-is.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (json.RawMessage, error) {
	if c == nil || c.container == nil {
		return nil, ErrClientNotReady
	}
	body, err := flows.RunRegister(ctx, req, flows.RegisterDeps{API: c.api, Errors: c.flowErrors()})
	if err != nil {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegister, c.container.Snapshot(), err, func() map[string]string {
			return map[string]string{"role": string(req.Role)}
		})
		return nil, err
	}
	c.metricInc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditEventRegister, c.container.Snapshot(), nil, func() map[string]string {
		return map[string]string{"role": string(req.Role)}
	})
	return body, nil
}

// Logout clears the stored credentials and resolves the session Anonymous.
// It makes no network call and may be called any number of times. Work in
// flight when Logout runs is discarded when it completes. The session is
// Anonymous even when the returned store error is non-nil.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.container == nil {
		return ErrClientNotReady
	}

	c.storeMu.Lock()
	storeErr := c.store.Clear(context.WithoutCancel(ctx))
	snap, _ := c.container.Force(session.ToAnonymous())
	c.storeMu.Unlock()

	c.metricInc(MetricLogout)
	if storeErr != nil {
		storeErr = fmt.Errorf("clear credentials: %w", storeErr)
		c.logger.ErrorContext(ctx, "logout could not clear credentials", "error", storeErr)
	}
	c.logger.InfoContext(ctx, "logged out", "generation", snap.Generation)
	c.emitAudit(ctx, auditEventLogout, snap, storeErr, nil)
	return storeErr
}

// SaveProfile sends a partial update of the signed-in account and merges
// whichever of user and profile the server returns into the session. On
// failure the session is unchanged.
func (c *Client) SaveProfile(ctx context.Context, update ProfileUpdate) (*SessionData, error) {
	if c == nil || c.container == nil {
		return nil, ErrClientNotReady
	}
	start := c.container.Snapshot()
	if !start.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	errs := c.flowErrors()

	patch, err := flows.RunSaveProfile(ctx, update, flows.SaveProfileDeps{API: c.api, Errors: errs})
	if err != nil {
		c.metricInc(MetricProfileSaveFailure)
		c.emitAudit(ctx, auditEventProfileSave, start, err, nil)
		return nil, err
	}

	snap, err := c.container.Apply(start.Generation, func(cur session.Snapshot) (session.Transition, error) {
		if !cur.Authenticated() {
			return session.Transition{}, ErrNotAuthenticated
		}
		merged, err := patch.Merge(cur.User, cur.Profile, errs)
		if err != nil {
			return session.Transition{}, err
		}
		return session.ToAuthenticated(merged.User, merged.Profile), nil
	})
	if err != nil {
		err = mapSessionError(err)
		if errors.Is(err, ErrSessionChanged) {
			c.metricInc(MetricStaleResultDropped)
		}
		c.metricInc(MetricProfileSaveFailure)
		c.emitAudit(ctx, auditEventProfileSave, c.container.Snapshot(), err, nil)
		return nil, err
	}

	c.metricInc(MetricProfileSaveSuccess)
	c.emitAudit(ctx, auditEventProfileSave, snap, nil, func() map[string]string {
		return map[string]string{
			"user_updated":    strconv.FormatBool(patch.User != nil),
			"profile_updated": strconv.FormatBool(patch.Profile != nil),
		}
	})
	return sessionDataFrom(snap), nil
}

// RotateTokens trades the stored refresh token for new credentials through
// the configured exchanger. The session is not re-resolved.
func (c *Client) RotateTokens(ctx context.Context) error {
	if c == nil || c.container == nil {
		return ErrClientNotReady
	}
	gen := c.container.Generation()
	_, exchange := c.refreshHooks()

	res, err := flows.RunRotate(ctx, flows.RotateDeps{
		Tokens:    c.guardedTokens(gen),
		Exchange:  exchange,
		MetricInc: func(id int) { c.metricInc(MetricID(id)) },
		Metrics: flows.BootstrapMetrics{
			RefreshSuccess: int(MetricRefreshSuccess),
			RefreshFailure: int(MetricRefreshFailure),
		},
		Errors: c.flowErrors(),
	})
	if err == nil && res.Superseded {
		c.metricInc(MetricStaleResultDropped)
		err = ErrSessionChanged
	}
	c.emitAudit(ctx, auditEventRotate, c.container.Snapshot(), err, func() map[string]string {
		return map[string]string{"rotated_refresh": strconv.FormatBool(res.Tokens.HasRefresh())}
	})
	if err != nil {
		c.logger.WarnContext(ctx, "token rotation failed", "error", err)
	}
	return err
}
