// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store is the system-of-record for jobs.
//
// Design intent:
// - Ingress paths create QUEUED jobs and read state.
// - All side-effects run in workers; NextQueued hands ownership to
//   exactly one worker by transitioning QUEUED to PROCESSING.
// - Status transitions are linearized per job through Update.
package store

import (
	"context"
	"errors"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrNoQueued signals an empty queue, not a failure.
	ErrNoQueued = errors.New("no queued jobs")
)

// JobStore owns job records and the FIFO queue discipline.
type JobStore interface {
	// Create persists a new QUEUED job.
	Create(ctx context.Context, job *model.Job) error

	// Get returns a copy of the job or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)

	// Update applies fn to the job under the store's write lock and
	// returns the updated copy.
	Update(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error)

	// List returns copies of all jobs.
	List(ctx context.Context) ([]*model.Job, error)

	// NextQueued atomically claims the oldest QUEUED job, transitioning
	// it to PROCESSING. Returns ErrNoQueued when the queue is empty.
	NextQueued(ctx context.Context) (*model.Job, error)

	// ActiveIDs returns the IDs of all non-terminal jobs.
	ActiveIDs(ctx context.Context) ([]string, error)

	Close() error
}
