package skillsync

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/skillsync/gateway"
	"github.com/MrEthical07/skillsync/internal/audit"
	"github.com/MrEthical07/skillsync/refresh"
	"github.com/MrEthical07/skillsync/session"
	"github.com/MrEthical07/skillsync/tokenstore"
)

// Builder assembles a Client. A Builder can be built once.
type Builder struct {
	config Config

	store      tokenstore.Store
	redis      redis.UniversalClient
	httpClient *http.Client
	logger     *slog.Logger
	auditSink  AuditSink
	exchanger  refresh.Exchanger
	clock      clockwork.Clock

	built bool
}

// New starts a Builder from DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore supplies the credential store directly, overriding
// Config.Storage.
func (b *Builder) WithStore(store tokenstore.Store) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the client used by the redis storage backend.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient replaces the HTTP client built from Config.API.Timeout.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithRefreshExchanger installs a custom exchanger and enables refresh.
func (b *Builder) WithRefreshExchanger(ex refresh.Exchanger) *Builder {
	b.exchanger = ex
	if ex != nil {
		b.config.Refresh.Enabled = true
	}
	return b
}

// WithClock replaces the wall clock used for expiry decisions and event
// timestamps.
func (b *Builder) WithClock(clock clockwork.Clock) *Builder {
	b.clock = clock
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Client. The session starts
// Unresolved; call Client.Bootstrap to resolve it.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := b.buildStore(cfg)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := b.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}

	c := &Client{
		config:    cloneConfig(cfg),
		store:     store,
		container: session.NewContainer(),
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
		clock:     clock,
	}
	c.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	c.api = gateway.New(cfg.API.BaseURL, store,
		gateway.WithHTTPClient(httpClient),
		gateway.WithLogger(logger),
		gateway.WithUserAgent(cfg.API.UserAgent),
		gateway.WithObserver(c.observeRequest),
	)

	if cfg.Refresh.Enabled {
		c.exchanger = b.exchanger
		if c.exchanger == nil {
			c.exchanger = refresh.NewSimpleJWT(c.api, logger).WithPath(cfg.Refresh.Path)
		}
		c.policy = refresh.Policy{Leeway: cfg.Refresh.Leeway, Clock: clock}
	}

	b.built = true
	return c, nil
}

func (b *Builder) buildStore(cfg Config) (tokenstore.Store, error) {
	if b.store != nil {
		return b.store, nil
	}
	switch cfg.Storage.Backend {
	case StorageFile:
		return tokenstore.NewFileStore(cfg.Storage.FilePath), nil
	case StorageRedis:
		if b.redis == nil {
			return nil, fmt.Errorf("%w: redis storage backend requires a redis client", ErrInvalidConfig)
		}
		return tokenstore.NewRedisStore(b.redis, cfg.Storage.RedisPrefix, cfg.Storage.RedisNamespace), nil
	default:
		return tokenstore.NewMemoryStore(tokenstore.Pair{}), nil
	}
}
