package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shunichi-ikebuchi/txledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/txledger/pkg/money"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run represents one ingestion run.
type Run struct {
	ID         string
	InputPath  string
	Seen       int
	Applied    int
	Rejected   int
	Rejections map[string]int
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRun builds a Run from the counters of a finished ingestion.
func NewRun(inputPath string, stats ledger.Stats, startedAt, finishedAt time.Time) Run {
	rejections := make(map[string]int, len(stats.Rejected))
	for reason, n := range stats.Rejected {
		rejections[string(reason)] = n
	}

	return Run{
		InputPath:  inputPath,
		Seen:       stats.Seen,
		Applied:    stats.Applied,
		Rejected:   stats.TotalRejected(),
		Rejections: rejections,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
}

// RunHistory manages run history records.
type RunHistory struct {
	conn *Connection
}

// NewRunHistory creates a new RunHistory instance.
func NewRunHistory(conn *Connection) *RunHistory {
	return &RunHistory{conn: conn}
}

// RecordRun stores a run and its account snapshots atomically.
// A new UUID is assigned when run.ID is empty. Returns the run id.
func (h *RunHistory) RecordRun(ctx context.Context, run Run, summaries []ledger.Summary) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	err := h.conn.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, input_path, records_seen, records_applied, records_rejected, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			run.InputPath,
			run.Seen,
			run.Applied,
			run.Rejected,
			run.StartedAt.UTC(),
			run.FinishedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for reason, count := range run.Rejections {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_rejections (run_id, reason, count) VALUES (?, ?, ?)`,
				run.ID, reason, count,
			); err != nil {
				return fmt.Errorf("failed to insert rejection count: %w", err)
			}
		}

		for _, s := range summaries {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO account_snapshots (run_id, client_id, available, held, locked)
				VALUES (?, ?, ?, ?, ?)
			`,
				run.ID,
				int64(s.ClientID),
				s.Available.String(),
				s.Held.String(),
				s.Locked,
			); err != nil {
				return fmt.Errorf("failed to insert snapshot for client %d: %w", s.ClientID, err)
			}
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	return run.ID, nil
}

// GetRun retrieves a run by id, including its rejection counts.
func (h *RunHistory) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, input_path, records_seen, records_applied, records_rejected, started_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(h.conn.QueryRow(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rejections, err := h.getRejections(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Rejections = rejections

	return &run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less returns all runs.
func (h *RunHistory) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, input_path, records_seen, records_applied, records_rejected, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// GetSnapshots returns the account summaries recorded for a run, by ascending client id.
func (h *RunHistory) GetSnapshots(ctx context.Context, runID string) ([]ledger.Summary, error) {
	query := `
		SELECT client_id, available, held, locked
		FROM account_snapshots
		WHERE run_id = ?
		ORDER BY client_id
	`

	rows, err := h.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []ledger.Summary
	for rows.Next() {
		var (
			clientID        int64
			available, held string
			locked          bool
		)
		if err := rows.Scan(&clientID, &available, &held, &locked); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		s := ledger.Summary{ClientID: uint16(clientID), Locked: locked}
		if s.Available, err = money.Parse(available); err != nil {
			return nil, fmt.Errorf("corrupt available balance for client %d: %w", clientID, err)
		}
		if s.Held, err = money.Parse(held); err != nil {
			return nil, fmt.Errorf("corrupt held balance for client %d: %w", clientID, err)
		}
		s.Total = s.Available.Add(s.Held)

		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return summaries, nil
}

// DeleteRun deletes a run and everything recorded with it.
func (h *RunHistory) DeleteRun(ctx context.Context, id string) (bool, error) {
	result, err := h.conn.Exec(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (h *RunHistory) getRejections(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := h.conn.Query(ctx, `SELECT reason, count FROM run_rejections WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rejections: %w", err)
	}
	defer rows.Close()

	rejections := make(map[string]int)
	for rows.Next() {
		var reason string
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rejection: %w", err)
		}
		rejections[reason] = count
	}

	return rejections, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.InputPath,
		&run.Seen,
		&run.Applied,
		&run.Rejected,
		&run.StartedAt,
		&run.FinishedAt,
	)
	return run, err
}

// Stats represents run history statistics.
type Stats struct {
	TotalRuns     int
	TotalRecords  int
	TotalApplied  int
	TotalRejected int
	TopReasons    []ReasonCount
	LastRun       sql.NullString
}

// ReasonCount is the number of records dropped for one reason across all runs.
type ReasonCount struct {
	Reason string
	Count  int
}

// GetStats retrieves statistics across all recorded runs.
func (h *RunHistory) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(records_seen), 0),
		       COALESCE(SUM(records_applied), 0),
		       COALESCE(SUM(records_rejected), 0)
		FROM runs
	`).Scan(&stats.TotalRuns, &stats.TotalRecords, &stats.TotalApplied, &stats.TotalRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to get run totals: %w", err)
	}

	err = h.conn.QueryRow(ctx, `SELECT MAX(started_at) FROM runs`).Scan(&stats.LastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	rows, err := h.conn.Query(ctx, `SELECT reason, SUM(count) FROM run_rejections GROUP BY reason`)
	if err != nil {
		return nil, fmt.Errorf("failed to get rejection totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rejection total: %w", err)
		}
		stats.TopReasons = append(stats.TopReasons, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rejection totals: %w", err)
	}

	sort.Slice(stats.TopReasons, func(i, j int) bool {
		if stats.TopReasons[i].Count != stats.TopReasons[j].Count {
			return stats.TopReasons[i].Count > stats.TopReasons[j].Count
		}
		return stats.TopReasons[i].Reason < stats.TopReasons[j].Reason
	})

	return &stats, nil
}
