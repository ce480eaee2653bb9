package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/catalog"
	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/structure"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger

	catalogPath string
	siteID      int64
	format      string

	shutdownTracing tracing.ShutdownFunc
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "fern",
		Short:         "Compile and run element queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			a.logger = logger

			if !cmd.Flags().Changed("catalog") {
				a.catalogPath = cfg.CatalogPath
			}
			if !cmd.Flags().Changed("site") {
				a.siteID = cfg.CurrentSiteID
			}
			if a.format != "text" && a.format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", a.format)
			}

			a.shutdownTracing, err = tracing.Install(a.context(cmd), tracing.ProviderConfig{
				ServiceName: cfg.AppName,
				Endpoint:    cfg.OTLPEndpoint,
				Protocol:    cfg.OTLPProtocol,
				Insecure:    cfg.OTLPInsecure,
				Timeout:     cfg.OTLPTimeout,
				SampleRatio: cfg.TraceSampleRatio,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.shutdownTracing == nil {
				return nil
			}
			if err := a.shutdownTracing(a.context(cmd)); err != nil {
				a.logger.WithContext(cmd.Context()).WithError(err).Warn("failed to flush traces")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "project catalog file (defaults to CATALOG_PATH)")
	cmd.PersistentFlags().Int64Var(&a.siteID, "site", 0, "current site id (defaults to CURRENT_SITE_ID)")
	cmd.PersistentFlags().StringVar(&a.format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newCompileCommand(a))
	cmd.AddCommand(newQueryCommand(a))
	cmd.AddCommand(newMigrateCommand(a))
	return cmd
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapConfig.Level = level

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

// context returns a command context carrying the current site, when set.
func (a *app) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.siteID > 0 {
		ctx = appctx.SetSiteID(ctx, a.siteID)
	}
	return ctx
}

// connect opens the database, retrying while it comes up.
func (a *app) connect(ctx context.Context) (*database.DatabaseInstance, error) {
	retrier := startup.NewRetrier(a.logger, a.cfg.DatabaseConnectAttempts, time.Second)
	return startup.Start(ctx, retrier, "database", func(ctx context.Context) (*database.DatabaseInstance, error) {
		return database.Connect(ctx, a.logger, database.ConnectionConfig{
			Driver:          a.cfg.DatabaseDriver,
			DSN:             a.cfg.DSN(),
			MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
			MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
			ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
		})
	})
}

func (a *app) compiler(nodes structure.NodeResolver) (*query.Compiler, error) {
	cat, err := catalog.Load(a.catalogPath)
	if err != nil {
		return nil, err
	}
	return query.NewCompiler(a.logger, query.Dependencies{
		Sites:   cat,
		Handles: cat,
		Fields:  cat,
		Nodes:   nodes,
	}), nil
}

func readDocument(path string) (*criteria.Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria document: %w", err)
	}
	doc, err := criteria.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Criteria()
}
