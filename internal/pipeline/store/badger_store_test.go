// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"testing"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBadger(t *testing.T, path string) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, t.TempDir())

	require.NoError(t, s.Create(ctx, newJob("a", 1)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "coffee", got.Topic)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, "a", func(j *model.Job) error {
		j.Progress = 40
		return nil
	})
	require.NoError(t, err)

	got, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
}

func TestBadgerStore_NextQueuedOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, t.TempDir())

	require.NoError(t, s.Create(ctx, newJob("later", 20)))
	require.NoError(t, s.Create(ctx, newJob("earlier", 10)))

	first, err := s.NextQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, "earlier", first.ID)
	assert.Equal(t, model.StatusProcessing, first.Status)

	second, err := s.NextQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, "later", second.ID)

	_, err = s.NextQueued(ctx)
	assert.ErrorIs(t, err, ErrNoQueued)
}

func TestBadgerStore_FIFOWithinSameSecond(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := OpenBadgerStore(dir)
	require.NoError(t, err)

	// Same-second enqueues with IDs that reverse lexical order.
	require.NoError(t, s.Create(ctx, newJob("zz-first", 10)))
	require.NoError(t, s.Create(ctx, newJob("aa-second", 10)))
	require.NoError(t, s.Close())

	// The arrival counter survives a restart, so the next enqueue still
	// sorts after both.
	reopened := openBadger(t, dir)
	require.NoError(t, reopened.Create(ctx, newJob("mm-third", 10)))

	var order []string
	for i := 0; i < 3; i++ {
		job, err := reopened.NextQueued(ctx)
		require.NoError(t, err)
		order = append(order, job.ID)
	}
	assert.Equal(t, []string{"zz-first", "aa-second", "mm-third"}, order)
}

func TestBadgerStore_RequeuesInterruptedOnOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newJob("a", 1)))
	_, err = s.Update(ctx, "a", func(j *model.Job) error {
		j.Status = model.StatusEditing
		j.Progress = 60
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newJob("done", 2)))
	_, err = s.Update(ctx, "done", func(j *model.Job) error {
		j.Status = model.StatusCompleted
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openBadger(t, dir)

	got, err := reopened.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, got.Status)
	assert.Zero(t, got.Progress)
	assert.Equal(t, "requeued after restart", got.Message)

	done, err := reopened.Get(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status, "terminal jobs stay terminal")
}

func TestBadgerStore_ActiveIDs(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, t.TempDir())

	require.NoError(t, s.Create(ctx, newJob("a", 1)))
	require.NoError(t, s.Create(ctx, newJob("b", 2)))
	_, err := s.Update(ctx, "b", func(j *model.Job) error {
		j.Status = model.StatusFailed
		return nil
	})
	require.NoError(t, err)

	ids, err := s.ActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}
