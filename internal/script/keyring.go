// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package script obtains and validates the 7-scene video script.
package script

import "sync"

// KeyRing rotates through API keys on quota exhaustion. A full cycle
// back to the starting key signals that every key is throttled.
type KeyRing struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewKeyRing builds a ring over the given keys.
func NewKeyRing(keys []string) *KeyRing {
	return &KeyRing{keys: append([]string(nil), keys...)}
}

// Empty reports whether no keys are configured.
func (r *KeyRing) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys) == 0
}

// Current returns the active key, or "".
func (r *KeyRing) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[r.idx]
}

// Rotate advances to the next key and reports whether the ring wrapped
// around to the start, i.e. every key has been tried this cycle.
func (r *KeyRing) Rotate() (wrapped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return true
	}
	r.idx = (r.idx + 1) % len(r.keys)
	return r.idx == 0
}

// Len returns the number of keys.
func (r *KeyRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
