package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Display run history statistics",
		Long: `Display statistics about recorded ingestion runs.

Shows:
- Total number of recorded runs
- Records seen, applied and dropped across all runs
- Dropped records by reason
- Last run timestamp

Example:
  txledger stats`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return printUsage(cmd)
			}
			return runStats(cmd, opts)
		},
	}
}

func runStats(cmd *cobra.Command, opts *options) error {
	conn, history, err := openHistory(cmd, opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	stats, err := history.GetStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Run Statistics ===")
	fmt.Fprintf(out, "Total runs:       %d\n", stats.TotalRuns)
	fmt.Fprintf(out, "Records seen:     %d\n", stats.TotalRecords)
	fmt.Fprintf(out, "Records applied:  %d\n", stats.TotalApplied)
	fmt.Fprintf(out, "Records dropped:  %d\n", stats.TotalRejected)

	for _, rc := range stats.TopReasons {
		fmt.Fprintf(out, "  %-26s %d\n", rc.Reason+":", rc.Count)
	}

	if stats.LastRun.Valid {
		fmt.Fprintf(out, "Last run:         %s\n", stats.LastRun.String)
	} else {
		fmt.Fprintf(out, "Last run:         (never)\n")
	}

	fmt.Fprintln(out)

	slog.Debug("Statistics displayed successfully")
	return nil
}
