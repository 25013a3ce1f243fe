// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package visuals selects and places stock footage on scene timelines.
package visuals

import "sync"

// Asset is a selectable piece of stock footage.
type Asset struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	URL      string `json:"url,omitempty"` // empty for mock assets
	Keyword  string `json:"keyword"`
}

// Usage tracks which asset IDs a job has already placed. Scoped per job
// so concurrent jobs do not starve each other's supply.
type Usage struct {
	mu   sync.Mutex
	used map[string]struct{}
}

// NewUsage returns an empty usage set.
func NewUsage() *Usage {
	return &Usage{used: make(map[string]struct{})}
}

// MarkUsed records an asset placement.
func (u *Usage) MarkUsed(id string) {
	u.mu.Lock()
	u.used[id] = struct{}{}
	u.mu.Unlock()
}

// IsUsed reports whether the asset has been placed before.
func (u *Usage) IsUsed(id string) bool {
	u.mu.Lock()
	_, ok := u.used[id]
	u.mu.Unlock()
	return ok
}

// CountUnused returns how many of the given assets are still unplaced.
func (u *Usage) CountUnused(assets []Asset) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, a := range assets {
		if _, ok := u.used[a.ID]; !ok {
			n++
		}
	}
	return n
}
