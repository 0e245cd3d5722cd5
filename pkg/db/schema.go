// Package db provides the SQLite run history: one row per ingestion run with
// its counters and the final account snapshots it produced.
package db

import "context"

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per ingestion run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,               -- UUID
    input_path TEXT NOT NULL,
    records_seen INTEGER NOT NULL,
    records_applied INTEGER NOT NULL,
    records_rejected INTEGER NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at
    ON runs(started_at);

-- Dropped records per run, by reason
CREATE TABLE IF NOT EXISTS run_rejections (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    reason TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, reason)
);

-- Final account balances of a run. Amounts are stored in display form
-- ("42.0") so they round-trip exactly through money.Parse.
CREATE TABLE IF NOT EXISTS account_snapshots (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    client_id INTEGER NOT NULL,
    available TEXT NOT NULL,
    held TEXT NOT NULL,
    locked INTEGER NOT NULL,
    PRIMARY KEY (run_id, client_id)
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(ctx context.Context, conn *Connection) error {
	if _, err := conn.Exec(ctx, Schema); err != nil {
		return err
	}
	return nil
}
