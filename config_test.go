package skillsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Refresh.Enabled {
		t.Fatalf("refresh must be off by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{"base url relative", func(c *Config) { c.API.BaseURL = "/api" }, false},
		{"base url blank", func(c *Config) { c.API.BaseURL = "  " }, false},
		{"base url https", func(c *Config) { c.API.BaseURL = "https://api.skillsync.test/api" }, true},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, false},
		{"file backend without path", func(c *Config) { c.Storage.Backend = StorageFile }, false},
		{"file backend with path", func(c *Config) {
			c.Storage.Backend = StorageFile
			c.Storage.FilePath = "/tmp/creds.json"
		}, true},
		{"redis backend blank prefix", func(c *Config) {
			c.Storage.Backend = StorageRedis
			c.Storage.RedisPrefix = ""
		}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, false},
		{"zero subscriber buffer", func(c *Config) { c.Session.SubscriberBuffer = 0 }, false},
		{"leeway too large", func(c *Config) { c.Refresh.Leeway = time.Hour }, false},
		{"refresh path relative", func(c *Config) {
			c.Refresh.Enabled = true
			c.Refresh.Path = "auth/refresh"
		}, false},
		{"audit zero buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}, false},
		{"histograms without metrics", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid {
				if err == nil {
					t.Fatalf("expected invalid config")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestBuilderCanBuildOnce(t *testing.T) {
	b := New()
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()
	if _, err := b.Build(); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestBuilderRedisBackendNeedsClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = StorageRedis
	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build with redis: %v", err)
	}
	c.Close()
}

func TestUnbuiltClientIsNotReady(t *testing.T) {
	var c *Client
	if err := c.Logout(context.Background()); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady, got %v", err)
	}
	if _, err := c.Login(context.Background(), "a", "b"); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady, got %v", err)
	}
}

func TestUnbuiltClientSubscribeIsClosed(t *testing.T) {
	for name, c := range map[string]*Client{"nil": nil, "zero": {}} {
		ch, cancel := c.Subscribe(1)
		if _, ok := <-ch; ok {
			t.Fatalf("%s: expected a closed channel", name)
		}
		cancel()
	}
}
