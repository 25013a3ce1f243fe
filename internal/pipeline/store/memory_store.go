// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"sync"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// MemoryStore is the default in-process JobStore. Not durable; jobs are
// lost on restart, which is acceptable for the default deployment.
type MemoryStore struct {
	mu sync.RWMutex

	jobs map[string]*model.Job

	// queue preserves strict FIFO arrival order of QUEUED jobs.
	queue []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*model.Job),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Create(_ context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job.Clone()
	m.queue = append(m.queue, job.ID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cpy := job.Clone()
	if err := fn(cpy); err != nil {
		return nil, err
	}
	m.jobs[id] = cpy
	return cpy.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		list = append(list, job.Clone())
	}
	return list, nil
}

func (m *MemoryStore) NextQueued(_ context.Context) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.queue) > 0 {
		id := m.queue[0]
		m.queue = m.queue[1:]

		job, ok := m.jobs[id]
		if !ok || job.Status != model.StatusQueued {
			continue // deleted or already claimed
		}
		cpy := job.Clone()
		cpy.Status = model.StatusProcessing
		m.jobs[id] = cpy
		return cpy.Clone(), nil
	}
	return nil, ErrNoQueued
}

func (m *MemoryStore) ActiveIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, job := range m.jobs {
		if !job.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
