// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package worker drives queued jobs through the generation pipeline.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/ManuGH/reelforge/internal/pipeline/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelforge_jobs_active",
		Help: "Jobs currently in PROCESSING",
	})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelforge_jobs_total",
		Help: "Finished jobs by result",
	}, []string{"result"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reelforge_job_duration_seconds",
		Help:    "Wall time from claim to terminal status",
		Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 900},
	})
)

// pollInterval is the fallback queue poll; Notify wakes the pool
// immediately on enqueue.
const pollInterval = time.Second

// Pool claims QUEUED jobs and runs up to Slots of them concurrently.
type Pool struct {
	store store.JobStore
	proc  *Processor
	sem   chan struct{}
	wake  chan struct{}
	wg    sync.WaitGroup
}

// NewPool builds a pool with the given concurrency limit.
func NewPool(st store.JobStore, proc *Processor, slots int) *Pool {
	if slots < 1 {
		slots = 1
	}
	return &Pool{
		store: st,
		proc:  proc,
		sem:   make(chan struct{}, slots),
		wake:  make(chan struct{}, 1),
	}
}

// Notify wakes the dispatch loop after an enqueue. Non-blocking.
func (p *Pool) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run dispatches until ctx is cancelled, then waits for in-flight jobs.
func (p *Pool) Run(ctx context.Context) {
	logger := log.WithComponent("worker")
	logger.Info().Int("slots", cap(p.sem)).Msg("worker pool started")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker pool draining")
			p.wg.Wait()
			logger.Info().Msg("worker pool stopped")
			return
		case <-p.wake:
		case <-ticker.C:
		}
		p.dispatch(ctx)
	}
}

// dispatch claims queued jobs while free slots remain. The slot is
// acquired before the claim so a claimed job always has a worker.
func (p *Pool) dispatch(ctx context.Context) {
	logger := log.WithComponent("worker")

	for {
		select {
		case p.sem <- struct{}{}:
		default:
			return // all slots busy
		}

		job, err := p.store.NextQueued(ctx)
		if err != nil {
			<-p.sem
			if !errors.Is(err, store.ErrNoQueued) {
				logger.Error().Err(err).Msg("claiming next job failed")
			}
			return
		}

		p.wg.Add(1)
		jobsActive.Inc()
		go func(job *model.Job) {
			defer p.wg.Done()
			defer jobsActive.Dec()
			defer func() { <-p.sem }()

			start := time.Now()
			p.proc.Process(ctx, job)
			jobDuration.Observe(time.Since(start).Seconds())
		}(job)
	}
}
