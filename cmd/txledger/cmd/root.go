// Package cmd provides CLI commands for txledger.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/txledger/pkg/config"
	"github.com/shunichi-ikebuchi/txledger/pkg/pathutil"
)

const usageLine = "usage: txledger input.csv > output.csv"

// options holds the flag values shared by all commands.
type options struct {
	cfgFile string
	debug   bool
	dbPath  string
	format  string
	output  string
	record  bool
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "txledger input.csv",
		Short: "Replay a transaction stream into account balances",
		Long: `txledger reads a CSV stream of deposits, withdrawals, disputes,
resolutions and chargebacks and prints the final balance of every client account.

Replayed transaction ids, disputes of unknown transactions and withdrawals
beyond the available balance are dropped silently. A malformed row aborts
the run without output.

Example:
  txledger transactions.csv > accounts.csv
  txledger transactions.csv --format json
  txledger transactions.csv --record && txledger history`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), opts.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, args)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "run history database (default is {data dir}/history.db)")

	// Ingestion flags
	rootCmd.Flags().StringVar(&opts.format, "format", "", "output format: csv, json or yaml (default csv)")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the summary to a file instead of stdout")
	rootCmd.Flags().BoolVar(&opts.record, "record", false, "record the run in the history database")

	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))

	return rootCmd
}

// Execute runs the root command.
// This is called by main.main(). Errors are logged before being returned.
func Execute() error {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("txledger failed", "error", err)
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// printUsage handles a wrong argument count on a subcommand the same way the
// root command does: print a usage line and succeed.
func printUsage(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "usage: "+cmd.UseLine())
	return nil
}

func setupLogging(w io.Writer, debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// loadConfig loads the configuration and applies the config-driven debug switch.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Debug && !opts.debug {
		setupLogging(cmd.ErrOrStderr(), true)
	}
	return cfg, nil
}

func newPathResolver(cfg *config.Config, opts *options) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		DataDir:      cfg.History.DataDir,
		DatabasePath: firstNonEmpty(opts.dbPath, cfg.History.DBPath),
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
