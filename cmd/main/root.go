package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matt-steen/sqr1/pkg/config"
	"github.com/matt-steen/sqr1/pkg/db"
	"github.com/matt-steen/sqr1/pkg/kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries what the subcommands share: the loaded config and the open database.
type app struct {
	configPath string
	out        io.Writer

	cfg      *config.Config
	registry *prometheus.Registry
	database *db.Database
	logFile  io.Closer
}

// execute runs the command line in args. Storage and the log file are closed afterwards, also when
// the command failed.
func execute(out, errOut io.Writer, args []string) error {
	a := &app{out: out}
	defer a.close()

	root := a.rootCmd()
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)

	return root.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sqr1",
		Short: "Notes, checklists and a small calendar, grouped into projects",
		Long: `sqr1 keeps up to three projects of tabbed notes and checklists, plus calendar events.

Examples:
  # Start the HTTP API
  sqr1 serve --config ~/.config/sqr1/config.yaml

  # Create a project and write into its first tab
  sqr1 project create Work
  sqr1 tab write <project-id> <tab-id> "ship it"

  # List this month's events
  sqr1 event list --month 2025-06`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		a.serveCmd(),
		a.projectCmd(),
		a.tabCmd(),
		a.checkCmd(),
		a.eventCmd(),
	)

	return root
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	a.cfg = cfg

	a.logFile, err = setupLogging(cfg.Log, cfg.LogLevel())
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}

	store, err := kv.Open(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("error opening %s storage: %w", cfg.Storage.Driver, err)
	}

	a.registry = prometheus.NewRegistry()
	a.database = db.NewDatabase(store, db.WithMetrics(db.NewMetrics(a.registry)))

	log.Debug().Str("driver", cfg.Storage.Driver).Msg("storage opened")

	return nil
}

func (a *app) close() {
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			log.Error().Err(err).Msg("error closing storage")
		}
	}

	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
