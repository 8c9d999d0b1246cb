package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rshade/klimatmodell/internal/climate"
	"github.com/rshade/klimatmodell/internal/report"
	"github.com/rshade/klimatmodell/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// app is the state shared by all subcommands, set up before any of them run.
type app struct {
	cfg    Config
	logger zerolog.Logger
	calc   *climate.Calculator
	tag    language.Tag
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		tablesPath string
		lang       string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:          "klimatmodell",
		Short:        "Screening estimate of construction-stage (A1-A5) embodied carbon for multifamily housing",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("tables") {
				cfg.TablesPath = tablesPath
			}
			if cmd.Flags().Changed("lang") {
				cfg.Lang = lang
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
				if err := cfg.validate(); err != nil {
					return err
				}
			}
			return a.init(cfg, cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&tablesPath, "tables", "", "calibration YAML replacing the embedded reference tables")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "report language (sv or en)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(estimateCmd(a))
	rootCmd.AddCommand(timberCmd(a))
	rootCmd.AddCommand(tablesCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	return rootCmd
}

func (a *app) init(cfg Config, cmd *cobra.Command) error {
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log.Logger = logger
	climate.SetLogger(logger)

	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.calc = climate.NewCalculator(tables)
	a.tag = report.ResolveTag(cfg.Lang)
	return nil
}

// loadTables returns the embedded or configured calibration with the
// configured overrides applied.
func loadTables(cfg Config) (*climate.ReferenceTables, error) {
	var (
		tables *climate.ReferenceTables
		err    error
	)
	if cfg.TablesPath != "" {
		tables, err = climate.LoadTables(cfg.TablesPath)
	} else {
		tables, err = climate.DefaultTables()
	}
	if err != nil {
		return nil, err
	}

	if cfg.ImprovementMode != "" {
		if tables, err = tables.WithImprovementMode(climate.ImprovementMode(cfg.ImprovementMode)); err != nil {
			return nil, err
		}
	}
	if cfg.WindowToWallRatio > 0 {
		if tables, err = tables.WithWindowToWallRatio(cfg.WindowToWallRatio); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func serveCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve assessments over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.cfg.ListenAddr
			if cmd.Flags().Changed("listen") {
				addr = listen
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.calc, a.logger)
			if err := srv.ListenAndServe(ctx, addr, a.cfg.ShutdownTimeout); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from KLIMATMODELL_LISTEN_ADDR)")
	return cmd
}

// commandContext returns the command's context or a background context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
