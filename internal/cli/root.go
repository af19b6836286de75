// Package cli implements the skillsync command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrEthical07/skillsync"
)

// app is the state shared by every command of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	envFile  string
	verbose  bool
	noColor  bool
	settings *Settings
	logger   *slog.Logger
	printer  *printer
	stdout   io.Writer
	stderr   io.Writer

	// redisClient is set when the redis store is in use; closed after the
	// command runs.
	redisClient *redis.Client
}

// NewRootCommand builds the skillsync command tree.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "skillsync",
		Short: "SkillSync marketplace session client",
		Long: `skillsync signs in to a SkillSync API, keeps the credentials between runs
and reports what the signed-in account may open.

Example usage:
  skillsync login ada@acme.test --password ...   # Sign in and store credentials
  skillsync whoami                               # Show the signed-in account
  skillsync routes                               # Gate decision for every screen
  skillsync logout                               # Forget the stored credentials`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.redisClient != nil {
				return a.redisClient.Close()
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .skillsync.yaml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.String("api-url", "", "SkillSync API base URL")
	pf.String("store", "", "credential store: file, redis or memory")
	pf.String("store-file", "", "credentials file for the file store")
	pf.String("redis-addr", "", "redis address for the redis store")

	_ = a.v.BindPFlag("api.base_url", pf.Lookup("api-url"))
	_ = a.v.BindPFlag("store.backend", pf.Lookup("store"))
	_ = a.v.BindPFlag("store.file", pf.Lookup("store-file"))
	_ = a.v.BindPFlag("redis.addr", pf.Lookup("redis-addr"))

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.registerCommand(),
		a.profileCommand(),
		a.routesCommand(),
		a.navCommand(),
		a.refreshCommand(),
	)
	return root
}

// Execute runs the CLI with os arguments.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}

func (a *app) init() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", a.envFile, err)
		}
	}

	s, err := LoadSettings(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = s

	level := slog.LevelWarn
	if err := level.UnmarshalText([]byte(s.Logging.Level)); err != nil {
		level = slog.LevelWarn
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	a.printer = newPrinter(a.stdout, a.stderr, s.Output.Colors && !a.noColor && colorAllowed())

	a.logger.Debug("configuration loaded",
		"api", s.API.BaseURL,
		"store", s.Store.Backend,
		"refresh", s.Refresh.Enabled,
	)
	return nil
}

func colorAllowed() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// client builds a Client for one command. Callers must Close it.
func (a *app) client() (*skillsync.Client, error) {
	cfg, err := a.settings.ClientConfig()
	if err != nil {
		return nil, err
	}

	b := skillsync.New().WithConfig(cfg).WithLogger(a.logger)
	if cfg.Storage.Backend == skillsync.StorageRedis {
		if a.redisClient == nil {
			a.redisClient = redis.NewClient(&redis.Options{
				Addr:     a.settings.Redis.Addr,
				Password: a.settings.Redis.Password,
				DB:       a.settings.Redis.DB,
			})
		}
		b = b.WithRedis(a.redisClient)
	}
	return b.Build()
}

// session builds a Client and resolves the stored credentials.
func (a *app) session(ctx context.Context) (*skillsync.Client, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	if err := c.Bootstrap(ctx); err != nil {
		a.printer.Warning("credential store: %v", err)
	}
	return c, nil
}

// reportedError marks an error whose message was already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// fail prints the user-facing message of err.
func (a *app) fail(action string, err error) error {
	a.printer.Error("%s: %s", action, skillsync.UserMessage(err))
	a.logger.Debug(action+" failed", "error", err)
	return reportedError{err: err}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
