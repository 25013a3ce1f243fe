// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cleanup guards disk usage: a persisted mark set protects
// finished jobs, and a periodic sweeper deletes everything else past
// the retention age.
package cleanup

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
)

// MarkedSet is the persisted collection of retention-protected job IDs.
// Every mutation rewrites the backing file atomically.
type MarkedSet struct {
	mu   sync.RWMutex
	path string
	ids  map[string]struct{}
}

// LoadMarkedSet reads the mark file; a missing file yields an empty set.
func LoadMarkedSet(path string) (*MarkedSet, error) {
	m := &MarkedSet{
		path: path,
		ids:  make(map[string]struct{}),
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- path from validated config
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mark file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("parse mark file: %w", err)
	}
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return m, nil
}

// Mark adds a job ID and persists the set.
func (m *MarkedSet) Mark(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[id]; ok {
		return nil
	}
	m.ids[id] = struct{}{}
	return m.persistLocked()
}

// Unmark removes a job ID and persists the set.
func (m *MarkedSet) Unmark(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[id]; !ok {
		return nil
	}
	delete(m.ids, id)
	return m.persistLocked()
}

// IsMarked reports whether the job ID is protected.
func (m *MarkedSet) IsMarked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[id]
	return ok
}

// All returns the marked IDs in stable order.
func (m *MarkedSet) All() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MarkedSet) persistLocked() error {
	ids := make([]string, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	buf, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(m.path, buf, 0o600); err != nil {
		return fmt.Errorf("persist mark file: %w", err)
	}
	return nil
}
