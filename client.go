package skillsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/skillsync/gateway"
	"github.com/MrEthical07/skillsync/internal/audit"
	"github.com/MrEthical07/skillsync/internal/flows"
	"github.com/MrEthical07/skillsync/refresh"
	"github.com/MrEthical07/skillsync/session"
	"github.com/MrEthical07/skillsync/tokenstore"
)

// Client owns one user's session: the stored credentials, the API gateway
// that carries them and the resolved identity. Methods are safe for
// concurrent use.
type Client struct {
	config    Config
	store     tokenstore.Store
	api       *gateway.Gateway
	container *session.Container
	exchanger refresh.Exchanger
	policy    refresh.Policy
	logger    *slog.Logger
	audit     *audit.Dispatcher
	metrics   *Metrics
	clock     clockwork.Clock

	// storeMu orders credential writes and clears against generation
	// changes, so a superseded operation can never write or wipe the
	// credentials of the operation that replaced it.
	storeMu sync.Mutex

	bootstrapOnce sync.Once
	reloads       singleflight.Group
}

// Close flushes pending audit events.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.audit.Close()
}

// API returns the gateway feature code uses for its own authenticated calls.
func (c *Client) API() *gateway.Gateway {
	if c == nil {
		return nil
	}
	return c.api
}

// Snapshot returns the current session.
func (c *Client) Snapshot() session.Snapshot {
	if c == nil || c.container == nil {
		return session.Snapshot{}
	}
	return c.container.Snapshot()
}

// Subscribe streams session snapshots, starting with the current one. A
// buffer below one uses Config.Session.SubscriberBuffer. Call the returned
// func to stop.
func (c *Client) Subscribe(buffer int) (<-chan session.Snapshot, func()) {
	if c == nil || c.container == nil {
		ch := make(chan session.Snapshot)
		close(ch)
		return ch, func() {}
	}
	if buffer < 1 {
		buffer = c.config.Session.SubscriberBuffer
	}
	return c.container.Subscribe(buffer)
}

// WaitResolved blocks until the session has left Unresolved.
func (c *Client) WaitResolved(ctx context.Context) (session.Snapshot, error) {
	if c == nil || c.container == nil {
		return session.Snapshot{}, ErrClientNotReady
	}
	return c.container.WaitResolved(ctx)
}

func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{}
	}
	return c.metrics.Snapshot()
}

func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// AuditDroppedByType breaks AuditDropped down by event type.
func (c *Client) AuditDroppedByType() map[string]uint64 {
	if c == nil {
		return map[string]uint64{}
	}
	return c.audit.DroppedByType()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) observeRequest(info gateway.RequestInfo) {
	c.metrics.Observe(MetricGatewayLatency, info.Duration)
	if info.Err != nil {
		c.metrics.Inc(MetricGatewayFailure)
	}
}

func (c *Client) flowErrors() flows.Errors {
	return flows.Errors{
		ClientNotReady:     ErrClientNotReady,
		MalformedResponse:  ErrMalformedResponse,
		NotAuthenticated:   ErrNotAuthenticated,
		RefreshUnavailable: ErrRefreshUnavailable,
	}
}

func (c *Client) identityDeps() flows.IdentityDeps {
	return flows.IdentityDeps{API: c.api, Errors: c.flowErrors()}
}

// guardedTokens returns store operations that only write or clear while gen
// is still the current generation.
func (c *Client) guardedTokens(gen uint64) flows.TokenOps {
	return flows.TokenOps{
		Read: c.store.Read,
		Write: func(ctx context.Context, p tokenstore.Pair) (bool, error) {
			c.storeMu.Lock()
			defer c.storeMu.Unlock()
			if !c.container.Current(gen) {
				return true, nil
			}
			return false, c.store.Write(ctx, p)
		},
		Clear: func(ctx context.Context) (bool, error) {
			c.storeMu.Lock()
			defer c.storeMu.Unlock()
			if !c.container.Current(gen) {
				return true, nil
			}
			return false, c.store.Clear(context.WithoutCancel(ctx))
		},
	}
}

func (c *Client) refreshHooks() (func(tokenstore.Pair) bool, func(context.Context, string) (tokenstore.Pair, error)) {
	if c.exchanger == nil {
		return nil, nil
	}
	return c.policy.NeedsExchange, c.exchanger.Exchange
}
