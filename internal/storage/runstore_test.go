package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(":memory:", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunStore_CreateGetUpdate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run := &entity.ResearchRun{ID: "run-1", Query: "rust vs go", Status: entity.TaskStatusPending}
	require.NoError(t, s.Create(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "rust vs go", got.Query)
	assert.Equal(t, entity.TaskStatusPending, got.Status)

	run.Status = entity.TaskStatusCompleted
	run.ReportPath = "/tmp/out/report.md"
	require.NoError(t, s.Update(ctx, run))

	got, err = s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusCompleted, got.Status)
	assert.Equal(t, "/tmp/out/report.md", got.ReportPath)
	assert.Empty(t, got.Error)
}

func TestRunStore_NotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, output.ErrRunNotFound)

	err = s.Update(ctx, &entity.ResearchRun{ID: "missing", Status: entity.TaskStatusFailed})
	assert.ErrorIs(t, err, output.ErrRunNotFound)
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Create(ctx, &entity.ResearchRun{
			ID: id, Query: id, Status: entity.TaskStatusPending, CreatedAt: ts, UpdatedAt: ts,
		}))
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, &entity.ResearchRun{ID: "x", Query: "q", Status: entity.TaskStatusRunning}))
	require.NoError(t, s.Close())

	s, err = Open(path, logger.NewNop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusRunning, got.Status)
}
