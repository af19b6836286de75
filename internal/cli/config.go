package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MrEthical07/skillsync"
	"github.com/MrEthical07/skillsync/gateway"
)

// Settings is the CLI configuration as read from .skillsync.yaml, SKILLSYNC_*
// environment variables and flags.
type Settings struct {
	API      APISettings     `mapstructure:"api"`
	Store    StoreSettings   `mapstructure:"store"`
	Redis    RedisSettings   `mapstructure:"redis"`
	Refresh  RefreshSettings `mapstructure:"refresh"`
	Logging  LoggingSettings `mapstructure:"logging"`
	Output   OutputSettings  `mapstructure:"output"`
	Password string          `mapstructure:"password"`
}

type APISettings struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreSettings struct {
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
}

type RedisSettings struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Prefix    string `mapstructure:"prefix"`
	Namespace string `mapstructure:"namespace"`
}

type RefreshSettings struct {
	Enabled bool          `mapstructure:"enabled"`
	Leeway  time.Duration `mapstructure:"leeway"`
}

type LoggingSettings struct {
	Level string `mapstructure:"level"`
}

type OutputSettings struct {
	Colors bool `mapstructure:"colors"`
}

// LoadSettings reads cfgFile, or .skillsync.yaml from the working directory
// or $HOME/.config/skillsync when cfgFile is empty. A missing file is not an
// error.
func LoadSettings(v *viper.Viper, cfgFile string) (*Settings, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".skillsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/skillsync")
	}

	v.SetEnvPrefix("SKILLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// SKILLSYNC_API_URL is the documented override; VITE_API_URL is honored
	// so a web client's .env works unchanged.
	_ = v.BindEnv("api.base_url", "SKILLSYNC_API_URL", "SKILLSYNC_API_BASE_URL", "VITE_API_URL")
	_ = v.BindEnv("password", "SKILLSYNC_PASSWORD")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", gateway.DefaultBaseURL)
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.file", defaultCredentialsPath())
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "skillsync:credentials")
	v.SetDefault("redis.namespace", "default")
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.leeway", 30*time.Second)
	v.SetDefault("logging.level", "warn")
	v.SetDefault("output.colors", true)
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "skillsync", "credentials.json")
}

// ClientConfig maps s onto the library configuration.
func (s *Settings) ClientConfig() (skillsync.Config, error) {
	cfg := skillsync.DefaultConfig()
	cfg.API.BaseURL = s.API.BaseURL
	cfg.API.Timeout = s.API.Timeout
	cfg.API.UserAgent = "skillsync-cli"

	switch strings.ToLower(s.Store.Backend) {
	case "file", "":
		cfg.Storage.Backend = skillsync.StorageFile
		cfg.Storage.FilePath = s.Store.File
	case "redis":
		cfg.Storage.Backend = skillsync.StorageRedis
		cfg.Storage.RedisPrefix = s.Redis.Prefix
		cfg.Storage.RedisNamespace = s.Redis.Namespace
	case "memory":
		cfg.Storage.Backend = skillsync.StorageMemory
	default:
		return cfg, fmt.Errorf("unknown store %q: must be file, redis or memory", s.Store.Backend)
	}

	cfg.Refresh.Enabled = s.Refresh.Enabled
	cfg.Refresh.Leeway = s.Refresh.Leeway
	cfg.Metrics.Enabled = true

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
