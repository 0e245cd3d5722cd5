package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/txledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/txledger/pkg/money"
	"github.com/shunichi-ikebuchi/txledger/pkg/transaction"
)

func openTestDB(t *testing.T) *Connection {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "history.db")
	conn, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, path, conn.GetPath())
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sampleStore() *ledger.Store {
	store := ledger.NewStore()
	store.Apply(transaction.Deposit{ID: transaction.ID{ClientID: 2, TransactionID: 1}, Value: money.MustParse("42")})
	store.Apply(transaction.Deposit{ID: transaction.ID{ClientID: 2, TransactionID: 1}, Value: money.MustParse("42")})
	store.Apply(transaction.Deposit{ID: transaction.ID{ClientID: 1, TransactionID: 2}, Value: money.MustParse("0.0001")})
	store.Apply(transaction.Dispute{ID: transaction.ID{ClientID: 2, TransactionID: 1}})
	store.Apply(transaction.Chargeback{ID: transaction.ID{ClientID: 2, TransactionID: 1}})
	store.Apply(transaction.Resolve{ID: transaction.ID{ClientID: 1, TransactionID: 9}})
	return store
}

func TestRecordRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	history := NewRunHistory(openTestDB(t))
	store := sampleStore()

	started := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	run := NewRun("/data/input.csv", store.Stats(), started, started.Add(time.Second))

	id, err := history.RecordRun(ctx, run, store.Summaries())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := history.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/data/input.csv", got.InputPath)
	assert.Equal(t, 6, got.Seen)
	assert.Equal(t, 4, got.Applied)
	assert.Equal(t, 2, got.Rejected)
	assert.Equal(t, map[string]int{
		string(ledger.RejectDuplicate): 1,
		string(ledger.RejectUnknown):   1,
	}, got.Rejections)
	assert.True(t, started.Equal(got.StartedAt))

	snapshots, err := history.GetSnapshots(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.Summaries(), snapshots)
}

func TestGetRunNotFound(t *testing.T) {
	history := NewRunHistory(openTestDB(t))

	_, err := history.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsAndStats(t *testing.T) {
	ctx := context.Background()
	history := NewRunHistory(openTestDB(t))

	empty, err := history.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalRuns)
	assert.False(t, empty.LastRun.Valid)

	store := sampleStore()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		started := base.Add(time.Duration(i) * time.Hour)
		id, err := history.RecordRun(ctx, NewRun("in.csv", store.Stats(), started, started), store.Summaries())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := history.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := history.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats, err := history.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRuns)
	assert.Equal(t, 18, stats.TotalRecords)
	assert.Equal(t, 12, stats.TotalApplied)
	assert.Equal(t, 6, stats.TotalRejected)
	assert.True(t, stats.LastRun.Valid)
	assert.Equal(t, []ReasonCount{
		{Reason: string(ledger.RejectDuplicate), Count: 3},
		{Reason: string(ledger.RejectUnknown), Count: 3},
	}, stats.TopReasons)
}

func TestDeleteRunCascades(t *testing.T) {
	ctx := context.Background()
	history := NewRunHistory(openTestDB(t))
	store := sampleStore()

	id, err := history.RecordRun(ctx, NewRun("in.csv", store.Stats(), time.Now(), time.Now()), store.Summaries())
	require.NoError(t, err)

	deleted, err := history.DeleteRun(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	snapshots, err := history.GetSnapshots(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	deleted, err = history.DeleteRun(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRecordRunKeepsExplicitID(t *testing.T) {
	ctx := context.Background()
	history := NewRunHistory(openTestDB(t))

	run := Run{ID: "fixed-id", InputPath: "x.csv", StartedAt: time.Now(), FinishedAt: time.Now()}
	id, err := history.RecordRun(ctx, run, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	_, err = history.RecordRun(ctx, run, nil)
	assert.Error(t, err, "duplicate run id must fail")
}
