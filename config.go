package skillsync

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/skillsync/gateway"
)

// Config is the full Client configuration. Start from DefaultConfig and
// override what you need; Builder.Build validates it.
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Session SessionConfig
	Refresh RefreshConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// APIConfig locates the SkillSync API.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// StorageBackend selects where credentials live when no Store is supplied to
// the Builder.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageFile   StorageBackend = "file"
	StorageRedis  StorageBackend = "redis"
)

// StorageConfig configures the credential store.
type StorageConfig struct {
	Backend StorageBackend
	// FilePath is used by the file backend.
	FilePath string
	// RedisPrefix and RedisNamespace are used by the redis backend; the
	// Builder must also be given a client with WithRedis.
	RedisPrefix    string
	RedisNamespace string
}

// SessionConfig tunes session resolution.
type SessionConfig struct {
	// BootstrapTimeout bounds the identity fetch during Bootstrap and Reload.
	// Zero means only the caller's context applies.
	BootstrapTimeout time.Duration
	// SubscriberBuffer is the default channel size for Subscribe.
	SubscriberBuffer int
}

// RefreshConfig controls refresh-token exchange.
type RefreshConfig struct {
	Enabled bool
	// Leeway treats an access token as expired this long before its exp claim.
	Leeway time.Duration
	Path   string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration a Builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: gateway.DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend:        StorageMemory,
			RedisPrefix:    "skillsync:credentials",
			RedisNamespace: "default",
		},
		Session: SessionConfig{
			BootstrapTimeout: 10 * time.Second,
			SubscriberBuffer: 1,
		},
		Refresh: RefreshConfig{
			Enabled: false,
			Leeway:  30 * time.Second,
			Path:    "/auth/refresh",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return invalid("API BaseURL must be set")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.Timeout < 0 {
		return invalid("API Timeout must be >= 0")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.Storage.FilePath) == "" {
			return invalid("Storage FilePath is required for the file backend")
		}
	case StorageRedis:
		if strings.TrimSpace(c.Storage.RedisPrefix) == "" {
			return invalid("Storage RedisPrefix is required for the redis backend")
		}
	default:
		return invalid(fmt.Sprintf("unknown Storage Backend %q", c.Storage.Backend))
	}

	if c.Session.BootstrapTimeout < 0 {
		return invalid("Session BootstrapTimeout must be >= 0")
	}
	if c.Session.SubscriberBuffer < 1 {
		return invalid("Session SubscriberBuffer must be >= 1")
	}

	if c.Refresh.Leeway < 0 || c.Refresh.Leeway > 10*time.Minute {
		return invalid("Refresh Leeway must be between 0 and 10m")
	}
	if c.Refresh.Enabled && !strings.HasPrefix(c.Refresh.Path, "/") {
		return invalid("Refresh Path must start with /")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
