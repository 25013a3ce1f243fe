// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"fmt"
)

// Open creates a JobStore based on the backend configuration. Both
// backends are wrapped with operation metrics.
func Open(backend, path string) (JobStore, error) {
	switch backend {
	case "", "memory":
		return NewInstrumented(NewMemoryStore(), "memory"), nil
	case "badger":
		inner, err := OpenBadgerStore(path)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return NewInstrumented(inner, "badger"), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
