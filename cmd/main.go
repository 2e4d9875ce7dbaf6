package main

import (
	"fmt"
	"io"
	"os"

	"xoso/internal/config"
	"xoso/internal/models"
	"xoso/internal/services"
	"xoso/internal/storage"

	"github.com/google/logger"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	dataDir    string
	variant    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "xoso",
		Short: "Tết lottery results board",
		Long: `xoso records the winning numbers of a Tết lottery draw, tier by tier,
and shows them on a results board.

Running it without a subcommand starts the web server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory holding results.json")
	root.PersistentFlags().StringVar(&opts.variant, "variant", "", "tier layout: standard or extended")

	root.AddCommand(
		newServeCmd(opts),
		newShowCmd(opts),
		newAddCmd(opts),
		newResetCmd(opts),
	)
	return root
}

// loadConfig applies command line overrides on top of config.Load.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.variant != "" {
		cfg.Variant = opts.variant
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger sends logs to the configured file, and to the console when
// verbose is set.
func initLogger(cfg *config.Config, verbose bool) (*logger.Logger, error) {
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	return logger.Init("xoso", verbose, false, out), nil
}

func newService(cfg *config.Config) (*services.LotteryService, *storage.FileStore, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, nil, err
	}
	store := storage.NewFileStore(cfg.DataDir)
	return services.NewLotteryService(store, layout, cfg.Toasts), store, nil
}

func printBoard(w io.Writer, service *services.LotteryService, results models.Results) {
	for _, tv := range service.Board(results).Tiers {
		fmt.Fprintf(w, "%-16s %6s", tv.Label, tv.BoardCount)
		for _, n := range tv.Numbers {
			fmt.Fprintf(w, " %s", n)
		}
		fmt.Fprintln(w)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
