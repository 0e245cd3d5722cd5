package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/txledger/pkg/csvio"
	"github.com/shunichi-ikebuchi/txledger/pkg/db"
	"github.com/shunichi-ikebuchi/txledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/txledger/pkg/pathutil"
	"github.com/shunichi-ikebuchi/txledger/pkg/report"
)

func runIngest(cmd *cobra.Command, opts *options, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(cmd.OutOrStdout(), usageLine)
		return nil
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	if err := cfg.Validate([]string{"output", "format"}); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	format, err := report.ParseFormat(firstNonEmpty(opts.format, cfg.Output.Format))
	if err != nil {
		return err
	}

	pathResolver := newPathResolver(cfg, opts)

	inputPath, err := pathResolver.ResolveInput(args[0])
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	startedAt := time.Now()
	slog.Info("Starting ingestion", "input", inputPath, "format", format)

	store := ledger.NewStore(ledger.WithLogger(slog.Default()))
	if _, err := csvio.Ingest(file, store); err != nil {
		return fmt.Errorf("failed to ingest %s: %w", args[0], err)
	}

	stats := store.Stats()
	for _, reason := range stats.Reasons() {
		slog.Debug("Dropped records", "reason", string(reason), "count", stats.Rejected[reason])
	}
	slog.Info("Ingestion completed",
		"records", stats.Seen,
		"applied", stats.Applied,
		"dropped", stats.TotalRejected(),
		"accounts", len(store.Accounts()),
	)

	summaries := store.Summaries()

	// Render fully before writing anything so a failure leaves no partial output.
	var buf bytes.Buffer
	if err := report.Write(&buf, format, summaries); err != nil {
		return err
	}

	if opts.record || cfg.History.Enabled {
		run := db.NewRun(inputPath, stats, startedAt, time.Now())
		if err := recordRun(cmd.Context(), pathResolver, run, summaries); err != nil {
			slog.Error("Failed to record run", "error", err)
		}
	}

	outputPath := firstNonEmpty(opts.output, cfg.Output.Path)
	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := pathResolver.EnsureParentDir(outputPath); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	slog.Info("Wrote summary", "path", outputPath, "accounts", len(summaries))

	return nil
}

func recordRun(ctx context.Context, pathResolver *pathutil.PathResolver, run db.Run, summaries []ledger.Summary) error {
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	id, err := db.NewRunHistory(conn).RecordRun(ctx, run, summaries)
	if err != nil {
		return err
	}

	slog.Info("Recorded run", "run_id", id, "database", conn.GetPath())
	return nil
}
