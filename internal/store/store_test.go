package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/runner"
	"github.com/roach88/janus/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestSummary(runID string, startedAt time.Time) *runner.Summary {
	return &runner.Summary{
		RunID:     runID,
		StartedAt: startedAt,
		Duration:  1500 * time.Millisecond,
		Filter:    "Observed*",
		Results: []runner.SpecResult{
			{
				Description: "Observed functions know what they were called with",
				Passed:      true,
				Diagnostics: []matcher.Diagnostic{
					{Passed: true, Matcher: "toBe"},
					{Passed: true, Matcher: "toHaveBeenCalledWith"},
				},
				Duration: time.Millisecond,
			},
			{
				Description: "Observed <html> & \"quotes\"",
				Diagnostics: []matcher.Diagnostic{
					{Passed: false, Matcher: "async", Message: "Async callback not called within 5000 milliseconds"},
				},
				Errors:   []string{"Async callback not called within 5000 milliseconds"},
				Duration: 5 * time.Second,
			},
			{
				Description: "Observed but empty",
			},
			{
				Description: "Observed never started",
				NotRun:      true,
				Diagnostics: []matcher.Diagnostic{{Passed: false, Matcher: "notRun", Message: "Spec not run: context canceled"}},
				Errors:      []string{"Spec not run: context canceled"},
			},
		},
		Passed: 1,
		Failed: 3,
		Total:  4,
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, ErrSchemaTooNew)
	assert.Contains(t, err.Error(), "version 99, supported 1")
}

func TestOpen_CreatesListIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_runs_started_at'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_runs_started_at", name)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.WriteRun(ctx, createTestSummary("run-1", testutil.Epoch)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	runs, err := s2.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestSummary("run-1", testutil.Epoch)

	require.NoError(t, s.WriteRun(ctx, want))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	got.StartedAt = want.StartedAt
	assert.Equal(t, want, got)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestSummary("run-1", testutil.Epoch)
	require.NoError(t, s.WriteRun(ctx, first))

	second := createTestSummary("run-1", testutil.Epoch)
	second.Passed = 4
	second.Results = second.Results[:1]
	require.NoError(t, s.WriteRun(ctx, second))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Passed)
	assert.Len(t, got.Results, 4)
}

func TestWriteRun_RejectsMissingID(t *testing.T) {
	s := createTestStore(t)
	assert.ErrorIs(t, s.WriteRun(context.Background(), nil), ErrInvalidRun)
	assert.ErrorIs(t, s.WriteRun(context.Background(), &runner.Summary{}), ErrInvalidRun)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestReadRun_EmptyRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, &runner.Summary{RunID: "empty", StartedAt: testutil.Epoch}))

	got, err := s.ReadRun(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got.Results)
	assert.Equal(t, 0, got.Total)
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, s.WriteRun(ctx, createTestSummary(id, testutil.Epoch.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].RunID)
	assert.Equal(t, "run-b", runs[1].RunID)
	assert.Equal(t, 4, runs[0].Total)
	assert.Equal(t, "Observed*", runs[0].Filter)
	assert.True(t, testutil.Epoch.Add(2*time.Minute).Equal(runs[0].StartedAt))
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRuns_SameStartOrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestSummary("0190-a", testutil.Epoch)))
	require.NoError(t, s.WriteRun(ctx, createTestSummary("0190-b", testutil.Epoch)))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "0190-b", runs[0].RunID)
}

func TestMarshalDiagnostics_NoHTMLEscaping(t *testing.T) {
	s, err := marshalDiagnostics([]matcher.Diagnostic{{Passed: false, Message: "Expected \"<a>\" to be \"&\""}})
	require.NoError(t, err)
	assert.Equal(t, `[{"passed":false,"message":"Expected \"<a>\" to be \"&\""}]`, s)

	s, err = marshalDiagnostics(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)
}
