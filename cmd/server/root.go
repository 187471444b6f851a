package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/damacus/iron-explorer/internal/config"
	"github.com/damacus/iron-explorer/internal/explorer"
	"github.com/damacus/iron-explorer/internal/observability"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/store"
)

var (
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "iron-explorer",
	Short: "Browse S3-compatible object storage",
	Long: `Iron Explorer lists, searches and manages objects in MinIO and other
S3-compatible stores.

"serve" exposes the JSON API. "ls", "search" and "count" run the same engine
from a terminal with the storage credentials from configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		l, err := observability.NewLogger(loaded.Logging.Level, loaded.Logging.Format)
		if err != nil {
			return err
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./config.yaml or /etc/iron-explorer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug|info|warn|error)")
}

// newFactory builds stores for request credentials. Each store is rate
// limited per storage.rate_limit and reports calls to observer.
func newFactory(c *config.Config, observer store.Observer) store.Factory {
	return &store.RealFactory{
		Decorate: func(s store.Store, driver string) store.Store {
			var limiter *rate.Limiter
			if c.Storage.RateLimit > 0 {
				limiter = rate.NewLimiter(rate.Limit(c.Storage.RateLimit), max(1, int(c.Storage.RateLimit)))
			}
			return store.NewInstrumented(s, driver, limiter, observer)
		},
	}
}

func newEngine(c *config.Config, l *zap.Logger) *explorer.Engine {
	return explorer.NewEngine(explorer.OptionsFromConfig(c), l.Named("explorer"))
}

// defaultCredentials are the connection defaults from storage.*. Keys may
// be empty.
func defaultCredentials(c *config.Config) services.Credentials {
	return services.Credentials{
		Driver:    c.Storage.Driver,
		Endpoint:  c.Storage.Endpoint,
		Region:    c.Storage.Region,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
	}
}

// staticCredentials returns the configured credentials when both keys are
// set, nil otherwise.
func staticCredentials(c *config.Config) *services.Credentials {
	creds := defaultCredentials(c)
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return nil
	}
	return &creds
}
