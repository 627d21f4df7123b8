package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/cleaner"
	"github.com/David-Botos/theatrical-curation/pkg/config"
	"github.com/David-Botos/theatrical-curation/pkg/connector"
	"github.com/David-Botos/theatrical-curation/pkg/logging"
	"github.com/David-Botos/theatrical-curation/pkg/report"
	"github.com/David-Botos/theatrical-curation/pkg/resolver"
	"github.com/David-Botos/theatrical-curation/pkg/session"
	"github.com/David-Botos/theatrical-curation/pkg/store"
)

// app carries what every subcommand needs after the pre-run
type app struct {
	format  string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	output report.Format
}

// NewRootCmd creates the curator command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "curator",
		Short: "Curate the free text and role values of a theatrical dataset",
		Long: `Curator sanitizes stored text fields (markup, entities, stray whitespace),
consolidates misspelled role values to a canonical spelling and removes
contributions whose person or production no longer exists.

The database is selected with CURATION_BACKEND (postgres, snowflake or sqlite).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			output, err := report.ParseFormat(a.format)
			if err != nil {
				return err
			}
			a.output = output
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.format, "format", "yaml", "Report format (yaml or json)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newCurateCmd(a))
	cmd.AddCommand(newRolesCmd(a))
	cmd.AddCommand(newOrphansCmd(a))
	cmd.AddCommand(newInitSchemaCmd(a))

	return cmd
}

// configure loads the configuration and installs the process logger.
// Commands that never touch the database skip it.
func (a *app) configure() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

// open connects to the configured backend and wraps it in a store
func (a *app) open(ctx context.Context) (connector.DatabaseConnector, *store.Store, error) {
	if err := a.configure(); err != nil {
		return nil, nil, err
	}

	conn, err := connector.NewConnectorFactory(a.cfg, a.logger).Create(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}

	st, err := store.New(conn, a.logger.Named("store"), a.cfg.BatchSize)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, st, nil
}

// newSession wires the cleaner, the resolver and the audit log into a session.
// Persisting sessions make sure the audit table exists first.
func (a *app) newSession(ctx context.Context, st *store.Store, dryRun bool) (*session.Session, error) {
	c, err := cleaner.NewDataCleaner(a.logger.Named("cleaner"), cleaner.WithWorkers(a.cfg.Workers))
	if err != nil {
		return nil, err
	}

	r, err := resolver.New(a.logger.Named("resolver"), resolver.Options{
		CharsPerEdit:   a.cfg.Similarity.CharsPerEdit,
		MinFuzzyLength: a.cfg.Similarity.MinFuzzyLength,
		MaxEdits:       a.cfg.Similarity.MaxEdits,
		Workers:        a.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	if !dryRun {
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	a.logger.Info("Starting curation run",
		zap.String("runId", runID),
		zap.Bool("dryRun", dryRun))

	return session.New(a.logger.Named("session"), c, r,
		session.WithDryRun(dryRun),
		session.WithRunID(runID),
		session.WithAudit(st.RecordCleaningOperations))
}

func (a *app) write(w io.Writer, v interface{}) error {
	return report.Write(w, a.output, v)
}
