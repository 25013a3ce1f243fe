// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/dgraph-io/badger/v4"
)

const jobKeyPrefix = "job:"

// BadgerStore is the durable JobStore. Jobs survive restarts; a job
// that was PROCESSING at crash time is requeued on open so the worker
// pool picks it up again.
//
// Layout: key = "job:<id>" (JSON). FIFO order is recovered from
// CreatedAtUnix, with a persisted arrival sequence breaking same-second
// ties.
type BadgerStore struct {
	db *badger.DB

	// mu serializes claim/update cycles; badger transactions alone would
	// allow two NextQueued callers to race on conflict retries.
	mu sync.Mutex

	// lastSeq is the arrival counter, seeded from the highest persisted
	// Seq on open. Guarded by mu.
	lastSeq uint64
}

func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	s := &BadgerStore{db: db}
	if err := s.requeueInterrupted(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

// requeueInterrupted resets PROCESSING-phase jobs back to QUEUED after
// an unclean shutdown and reseeds the arrival counter.
func (s *BadgerStore) requeueInterrupted() error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(jobKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var job model.Job
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			}); err != nil {
				return err
			}
			if job.Seq > s.lastSeq {
				s.lastSeq = job.Seq
			}
			if job.Status == model.StatusQueued || job.Status.IsTerminal() {
				continue
			}
			job.Status = model.StatusQueued
			job.Progress = 0
			job.Message = "requeued after restart"
			buf, err := json.Marshal(&job)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(jobKeyPrefix+job.ID), buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Create(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeq++
	cp := job.Clone()
	cp.Seq = s.lastSeq
	buf, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(jobKeyPrefix+cp.ID), buf)
	})
}

func (s *BadgerStore) Get(_ context.Context, id string) (*model.Job, error) {
	var out model.Job
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(jobKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BadgerStore) Update(_ context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out model.Job
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(jobKeyPrefix + id)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		}); err != nil {
			return err
		}
		if err := fn(&out); err != nil {
			return err
		}
		buf, err := json.Marshal(&out)
		if err != nil {
			return err
		}
		return txn.Set(key, buf)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BadgerStore) List(_ context.Context) ([]*model.Job, error) {
	var list []*model.Job
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(jobKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var job model.Job
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			}); err != nil {
				return err
			}
			list = append(list, &job)
		}
		return nil
	})
	return list, err
}

func (s *BadgerStore) NextQueued(ctx context.Context) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var oldest *model.Job
	for _, job := range jobs {
		if job.Status != model.StatusQueued {
			continue
		}
		if oldest == nil || claimBefore(job, oldest) {
			oldest = job
		}
	}
	if oldest == nil {
		return nil, ErrNoQueued
	}

	oldest.Status = model.StatusProcessing
	buf, err := json.Marshal(oldest)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(jobKeyPrefix+oldest.ID), buf)
	})
	if err != nil {
		return nil, err
	}
	return oldest, nil
}

// claimBefore orders queued jobs for claiming: creation time first, the
// arrival sequence for same-second enqueues, then ID for records
// predating the sequence counter.
func claimBefore(a, b *model.Job) bool {
	if a.CreatedAtUnix != b.CreatedAtUnix {
		return a.CreatedAtUnix < b.CreatedAtUnix
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.ID < b.ID
}

func (s *BadgerStore) ActiveIDs(ctx context.Context) ([]string, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, job := range jobs {
		if !job.Status.IsTerminal() {
			ids = append(ids, job.ID)
		}
	}
	return ids, nil
}
