package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gowalmart_seller/config"
	"gowalmart_seller/internal/walmart/protocol"
	"gowalmart_seller/metrics"
	"gowalmart_seller/pkg/dbconnect"
	"gowalmart_seller/pkg/dbconnect/postgres"
	"gowalmart_seller/pkg/logger"
)

const (
	CmdName   = "walmart-seller"
	envPrefix = "WALMART_SELLER"
)

// App is the command line of the connector.
type App struct {
	cmd   *cobra.Command
	viper *viper.Viper

	config appConfig
	opts   options

	stdout io.Writer
	stderr io.Writer
	log    *logger.BaseLogger
}

type appConfig struct {
	Verbosity   int      `mapstructure:"verbose"`
	JSONLogs    bool     `mapstructure:"json-logs"`
	Config      string   `mapstructure:"config"`
	Catalog     string   `mapstructure:"catalog"`
	MetricsPort int      `mapstructure:"metrics-port"`
	Workers     int      `mapstructure:"workers"`
	Streams     []string `mapstructure:"streams"`

	DBHost     string `mapstructure:"db-host"`
	DBPort     string `mapstructure:"db-port"`
	DBUser     string `mapstructure:"db-user"`
	DBPassword string `mapstructure:"db-password"`
	DBName     string `mapstructure:"db-name"`
	DBSSLMode  string `mapstructure:"db-sslmode"`
}

type options struct {
	httpClient         *http.Client
	reportPollInterval time.Duration
	reportMaxPolls     uint
	newDatabase        func(config.PostgresConfig, logger.Logger) dbconnect.Database
}

// Options customises the App, mostly for tests.
type Options func(*options)

// New creates the App writing protocol messages to stdout and logs to stderr.
func New(stdout, stderr io.Writer, args ...Options) (*App, error) {
	a := App{
		stdout: stdout,
		stderr: stderr,
		log:    logger.NewLogger(stderr, "[ WalmartServer ] "),
		opts: options{
			newDatabase: func(cfg config.PostgresConfig, log logger.Logger) dbconnect.Database {
				return postgres.NewPgConnector(cfg, log)
			},
		},
	}
	for _, f := range args {
		f(&a.opts)
	}

	a.cmd = &cobra.Command{
		Use:           CmdName,
		Short:         "Walmart Marketplace source connector",
		Long:          "Reads orders, returns, items, inventory and item reports from the Walmart Marketplace API.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cmd.SilenceUsage = true
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}
			logger.SetVerbosity(a.config.Verbosity)
			logger.SetJSON(a.config.JSONLogs)
			a.log.SetWriter(a.stderr)
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true
	a.cmd.SetOut(stderr)
	a.cmd.SetErr(stderr)

	installRootFlags(&a)
	a.installSpec()
	a.installCheck()
	a.installDiscover()
	a.installRead()
	a.installSync()

	a.viper.SetEnvPrefix(envPrefix)
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()
	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}
	return &a, nil
}

func installRootFlags(a *App) {
	flags := a.cmd.PersistentFlags()
	flags.CountVarP(&a.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	flags.BoolVar(&a.config.JSONLogs, "json-logs", false, "enable JSON formatted logs")
	flags.StringVar(&a.config.Config, "config", "", "path to the connector configuration (YAML or JSON)")
	flags.StringVar(&a.config.Catalog, "catalog", "", "path to the configured catalog")
	flags.IntVar(&a.config.MetricsPort, "metrics-port", 0, "serve Prometheus metrics on this port, 0 disables")
	flags.IntVar(&a.config.Workers, "workers", DefaultWorkers, "streams synced concurrently")
	flags.StringSliceVar(&a.config.Streams, "streams", nil, "streams to sync, all when empty")

	flags.StringVar(&a.config.DBHost, "db-host", "", "database host")
	flags.StringVar(&a.config.DBPort, "db-port", "", "database port")
	flags.StringVar(&a.config.DBUser, "db-user", "", "database user")
	flags.StringVar(&a.config.DBPassword, "db-password", "", "database password")
	flags.StringVar(&a.config.DBName, "db-name", "", "database name")
	flags.StringVar(&a.config.DBSSLMode, "db-sslmode", "", "database SSL mode")
}

func (a *App) installSpec() {
	a.cmd.AddCommand(&cobra.Command{
		Use:   "spec",
		Short: "Print the connector specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.server(config.AppConfig{}).Spec()
		},
	})
}

func (a *App) installCheck() {
	a.cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check that the credentials can read from the Walmart API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.Config == "" {
				return errors.New("--config is required")
			}
			cfg, err := a.loadConfig()
			if err != nil {
				a.log.Warn("connection check failed: %s", err)
				return protocol.NewWriter(a.stdout).ConnectionStatus(protocol.StatusFailed, err.Error())
			}
			return a.server(*cfg).Check(cmd.Context())
		},
	})
}

func (a *App) installDiscover() {
	a.cmd.AddCommand(&cobra.Command{
		Use:   "discover",
		Short: "Print the catalog of available streams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.server(*cfg).Discover()
		},
	})
}

func (a *App) installRead() {
	a.cmd.AddCommand(&cobra.Command{
		Use:   "read",
		Short: "Emit the records of the configured catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if a.config.Catalog == "" {
				return errors.New("--catalog is required")
			}
			catalog, err := protocol.LoadConfiguredCatalog(a.config.Catalog)
			if err != nil {
				return err
			}
			return a.withMetrics(cmd.Context(), func() error {
				return a.server(*cfg).Read(cmd.Context(), catalog)
			})
		},
	})
}

func (a *App) installSync() {
	a.cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Load every stream into PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			database := a.opts.newDatabase(cfg.Postgres, a.log.WithPrefix("[ Postgres ] "))
			defer database.Close()

			return a.withMetrics(cmd.Context(), func() error {
				return a.server(*cfg).Sync(cmd.Context(), database, a.config.Streams)
			})
		},
	})
}

func (a *App) loadConfig() (*config.AppConfig, error) {
	if a.config.Config == "" {
		return nil, errors.New("--config is required")
	}
	cfg, err := config.LoadConfig(a.config.Config)
	if err != nil {
		return nil, err
	}
	override := func(v *string, flag string) {
		if flag != "" {
			*v = flag
		}
	}
	override(&cfg.Postgres.Host, a.config.DBHost)
	override(&cfg.Postgres.Port, a.config.DBPort)
	override(&cfg.Postgres.User, a.config.DBUser)
	override(&cfg.Postgres.Password, a.config.DBPassword)
	override(&cfg.Postgres.DBName, a.config.DBName)
	override(&cfg.Postgres.SSLMode, a.config.DBSSLMode)
	return cfg, nil
}

func (a *App) server(cfg config.AppConfig) *WalmartServer {
	return NewWalmartServer(cfg, a.stdout, a.log, ServerOptions{
		HTTPClient:         a.opts.httpClient,
		Workers:            a.config.Workers,
		ReportPollInterval: a.opts.reportPollInterval,
		ReportMaxPolls:     a.opts.reportMaxPolls,
	})
}

func (a *App) withMetrics(ctx context.Context, run func() error) error {
	if a.config.MetricsPort <= 0 {
		return run()
	}
	srv := metrics.NewServer("", a.config.MetricsPort)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting metrics server: %w", err)
	}
	a.log.Log("serving metrics on %s", srv.Addr())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return run()
}

// Run executes the command selected by the arguments.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.log.Sync() }()
	return a.cmd.ExecuteContext(ctx)
}

// SetArgs sets the arguments for the command.
func (a *App) SetArgs(args []string) {
	a.cmd.SetArgs(args)
}

// UsageError returns if the error is a command parsing or runtime one.
func (a *App) UsageError() bool {
	return !a.cmd.SilenceUsage
}
