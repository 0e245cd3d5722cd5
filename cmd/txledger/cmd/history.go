package cmd

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/txledger/pkg/db"
	"github.com/shunichi-ikebuchi/txledger/pkg/report"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		limit  int
		format string
		remove bool
	)

	historyCmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs or show one run",
		Long: `List the most recent ingestion runs recorded with --record.

With a run id, print the counters of that run followed by the
account balances it produced. With --delete, remove the run instead.

Example:
  txledger history --limit 5
  txledger history 3f2c9a7e-... --format json
  txledger history 3f2c9a7e-... --delete`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) > 1, remove && len(args) != 1:
				return printUsage(cmd)
			case remove:
				return runDeleteRun(cmd, opts, args[0])
			case len(args) == 1:
				return runShowRun(cmd, opts, args[0], format)
			default:
				return runListRuns(cmd, opts, limit)
			}
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().StringVar(&format, "format", "csv", "balance format when showing a run: csv, json or yaml")
	historyCmd.Flags().BoolVar(&remove, "delete", false, "delete the given run and its snapshots")

	return historyCmd
}

func openHistory(cmd *cobra.Command, opts *options) (*db.Connection, *db.RunHistory, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate([]string{"history", "dataDir"}); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pathResolver := newPathResolver(cfg, opts)
	dbPath := pathResolver.GetDatabasePath()
	if !pathResolver.FileExists(dbPath) {
		slog.Debug("No history database yet, creating an empty one", "path", dbPath)
	}
	slog.Debug("Opening database", "data_dir", pathResolver.GetDataDir(), "path", dbPath)

	conn, err := db.Open(cmd.Context(), dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	return conn, db.NewRunHistory(conn), nil
}

func runListRuns(cmd *cobra.Command, opts *options, limit int) error {
	conn, history, err := openHistory(cmd, opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	runs, err := history.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s  seen=%d applied=%d dropped=%d  %s\n",
			run.ID,
			run.StartedAt.Local().Format(time.RFC3339),
			run.Seen,
			run.Applied,
			run.Rejected,
			run.InputPath,
		)
	}

	return nil
}

func runShowRun(cmd *cobra.Command, opts *options, id, formatName string) error {
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	conn, history, err := openHistory(cmd, opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	run, err := history.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	summaries, err := history.GetSnapshots(cmd.Context(), id)
	if err != nil {
		return err
	}

	// Counters go to stderr so stdout stays a clean balance report.
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Run:      %s\n", run.ID)
	fmt.Fprintf(errOut, "Input:    %s\n", run.InputPath)
	fmt.Fprintf(errOut, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(errOut, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt))
	fmt.Fprintf(errOut, "Records:  seen=%d applied=%d dropped=%d\n", run.Seen, run.Applied, run.Rejected)

	reasons := make([]string, 0, len(run.Rejections))
	for reason := range run.Rejections {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(errOut, "  %s: %d\n", reason, run.Rejections[reason])
	}

	return report.Write(cmd.OutOrStdout(), format, summaries)
}

func runDeleteRun(cmd *cobra.Command, opts *options, id string) error {
	conn, history, err := openHistory(cmd, opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	deleted, err := history.DeleteRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", db.ErrRunNotFound, id)
	}

	slog.Info("Deleted run", "run_id", id)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
	return nil
}
