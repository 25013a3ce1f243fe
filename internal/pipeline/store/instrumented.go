// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_store_ops_total",
			Help: "Job store operations",
		},
		[]string{"backend", "op", "result"},
	)
	storeLat = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_store_op_seconds",
			Help:    "Job store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
)

// instrumented wraps any JobStore to capture metrics.
type instrumented struct {
	inner   JobStore
	backend string
}

func NewInstrumented(inner JobStore, backend string) JobStore {
	return &instrumented{inner: inner, backend: backend}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	res := "success"
	// Empty-queue and not-found are outcomes, not store failures.
	if err != nil && !errors.Is(err, ErrNoQueued) && !errors.Is(err, ErrNotFound) {
		res = "error"
	}
	storeOps.WithLabelValues(i.backend, op, res).Inc()
	storeLat.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) Create(ctx context.Context, job *model.Job) (err error) {
	start := time.Now()
	defer func() { i.observe("create", start, err) }()
	return i.inner.Create(ctx, job)
}

func (i *instrumented) Get(ctx context.Context, id string) (job *model.Job, err error) {
	start := time.Now()
	defer func() { i.observe("get", start, err) }()
	return i.inner.Get(ctx, id)
}

func (i *instrumented) Update(ctx context.Context, id string, fn func(*model.Job) error) (job *model.Job, err error) {
	start := time.Now()
	defer func() { i.observe("update", start, err) }()
	return i.inner.Update(ctx, id, fn)
}

func (i *instrumented) List(ctx context.Context) (list []*model.Job, err error) {
	start := time.Now()
	defer func() { i.observe("list", start, err) }()
	return i.inner.List(ctx)
}

func (i *instrumented) NextQueued(ctx context.Context) (job *model.Job, err error) {
	start := time.Now()
	defer func() { i.observe("next_queued", start, err) }()
	return i.inner.NextQueued(ctx)
}

func (i *instrumented) ActiveIDs(ctx context.Context) (ids []string, err error) {
	start := time.Now()
	defer func() { i.observe("active_ids", start, err) }()
	return i.inner.ActiveIDs(ctx)
}

func (i *instrumented) Close() error { return i.inner.Close() }
