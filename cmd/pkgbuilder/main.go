// Package main is the entry point for the pkgbuilder command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/pkgbuilder/internal/config"
	"github.com/dshills/pkgbuilder/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// globals holds state shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "pkgbuilder",
		Short:         "Build course packages with undo and redo",
		Long:          `pkgbuilder edits course package documents: packages, courses, terms, and grades joined by edges, with live totals and a bounded undo history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultPath, "Path to configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newEditCmd(g),
		newTotalsCmd(g),
		newPreviewCmd(g),
		newVersionCmd(),
	)
	return root
}

func (g *globals) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		if !logging.ValidLevel(g.logLevel) {
			return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", g.logLevel)
		}
		cfg.Logging.Level = g.logLevel
	}

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	g.cfg = cfg
	g.logger = logging.New(lc)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pkgbuilder %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}
