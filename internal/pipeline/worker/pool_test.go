// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/ManuGH/reelforge/internal/pipeline/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitForStatus(t *testing.T, st store.JobStore, id string, want model.JobStatus) *model.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := st.Get(context.Background(), id)
		require.NoError(t, err)
		if job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
	return nil
}

func TestPool_ProcessesQueuedJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	oracle := &fakeOracle{scripts: []model.Script{goodScript()}}
	p, st := newTestProcessor(t, oracle, &fakeRenderer{})
	pool := NewPool(st, p, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	ids := []string{"a", "b", "c"}
	for i, id := range ids {
		require.NoError(t, st.Create(ctx, &model.Job{
			ID:              id,
			Topic:           "coffee",
			DurationSeconds: 30,
			Tone:            model.ToneInformative,
			DryRun:          true,
			Status:          model.StatusQueued,
			CreatedAtUnix:   int64(i),
		}))
		pool.Notify()
	}

	for _, id := range ids {
		job := waitForStatus(t, st, id, model.StatusCompleted)
		require.NotNil(t, job.Result)
		assert.NotNil(t, job.Result.Script)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain")
	}
}

func TestPool_RespectsSlotLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	oracle := &fakeOracle{scripts: []model.Script{goodScript()}}
	p, st := newTestProcessor(t, oracle, &fakeRenderer{})
	pool := NewPool(st, p, 1)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, st.Create(ctx, &model.Job{
			ID:              fmt.Sprintf("job%d", i),
			Topic:           "coffee",
			DurationSeconds: 30,
			Tone:            model.ToneInformative,
			DryRun:          true,
			Status:          model.StatusQueued,
		}))
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		pool.Run(runCtx)
		close(done)
	}()
	pool.Notify()

	for i := 0; i < 3; i++ {
		waitForStatus(t, st, fmt.Sprintf("job%d", i), model.StatusCompleted)
	}

	cancel()
	<-done
}

func TestNewPool_MinimumOneSlot(t *testing.T) {
	p, st := newTestProcessor(t, &fakeOracle{scripts: []model.Script{goodScript()}}, &fakeRenderer{})
	pool := NewPool(st, p, 0)
	assert.Equal(t, 1, cap(pool.sem))
}

func TestPool_NotifyNeverBlocks(t *testing.T) {
	p, st := newTestProcessor(t, &fakeOracle{scripts: []model.Script{goodScript()}}, &fakeRenderer{})
	pool := NewPool(st, p, 1)
	for i := 0; i < 10; i++ {
		pool.Notify()
	}
}
