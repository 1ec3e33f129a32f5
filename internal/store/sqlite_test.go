package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prgate/prgate/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(task string) *models.StateRecord {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &models.StateRecord{
		ID:            NewID(),
		Task:          task,
		Iteration:     1,
		MaxIterations: 1,
		Status:        models.GateStatusReady,
		Reviews: []models.IterationReview{
			{Iteration: 1, Opus: models.Outcome{
				Score:    models.Float(9.5),
				Verdict:  models.VerdictApprove,
				Findings: []models.Finding{},
			}},
		},
		StartedAt: now,
		UpdatedAt: now,
		Cost: models.CostSummary{
			Opus:  0.42,
			Total: 0.42,
			Breakdown: models.CostBreakdown{
				Opus: models.CostEntry{TokensIn: 1000, TokensOut: 200, CostUSD: 0.42},
			},
			Reviews: []models.CostAuditEntry{{
				Model: "claude-opus-4-1", PRNumber: 7, Score: models.Float(9.5),
				Status: models.GateStatusReady, TokensIn: 1000, TokensOut: 200,
				CostUSD: 0.42, Timestamp: now,
			}},
		},
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)

	err := s.Migrate(context.Background())
	assert.NoError(t, err)
}

func TestStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("fix-login")
	require.NoError(t, s.PutState(ctx, rec, 7))

	got, err := s.GetState(ctx, "fix-login")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Status, got.Status)
	require.Len(t, got.Reviews, 1)
	require.NotNil(t, got.Reviews[0].Opus.Score)
	assert.Equal(t, 9.5, *got.Reviews[0].Opus.Score)
	assert.Equal(t, rec.Cost.Total, got.Cost.Total)
	require.Len(t, got.Cost.Reviews, 1)
	assert.True(t, got.StartedAt.Equal(rec.StartedAt))
}

func TestGetState_AbsentIsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetState(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPutState_UpsertsByTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("iterate")
	require.NoError(t, s.PutState(ctx, rec, 7))

	rec.Iteration = 2
	rec.Status = models.GateStatusFailed
	rec.Reviews = append(rec.Reviews, models.IterationReview{
		Iteration: 2,
		Opus:      models.Outcome{Verdict: models.VerdictRequestChanges, Findings: []models.Finding{}},
	})
	require.NoError(t, s.PutState(ctx, rec, 7))

	got, err := s.GetState(ctx, "iterate")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Iteration)
	assert.Len(t, got.Reviews, 2)

	states, err := s.ListStates(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 1, "upsert must not create a second row")
}

func TestGetState_CorruptBodyTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state_records (id, task, pr_number, status, iteration, body, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		NewID(), "corrupt", 1, "ready", 1, "{not json", time.Now(), time.Now())
	require.NoError(t, err)

	got, err := s.GetState(ctx, "corrupt")
	require.NoError(t, err)
	assert.Nil(t, got, "unparseable body must read as absent")
}

func TestListStates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testRecord("older")
	older.UpdatedAt = older.UpdatedAt.Add(-time.Hour)
	require.NoError(t, s.PutState(ctx, older, 1))

	newer := testRecord("newer")
	require.NoError(t, s.PutState(ctx, newer, 2))

	states, err := s.ListStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, "newer", states[0].Task)
	assert.Equal(t, "older", states[1].Task)
	assert.Equal(t, 2, states[0].PRNumber)
	assert.Equal(t, 0.42, states[0].TotalUSD)
	assert.Equal(t, models.GateStatusReady, states[0].Status)
}

func TestNewID_Unique(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
