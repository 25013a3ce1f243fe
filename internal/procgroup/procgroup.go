// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package procgroup spawns and reaps renderer subprocess trees. FFmpeg
// can fork helpers; killing only the leader leaks them.
package procgroup

import (
	"errors"
)

var (
	ErrProcessNotFound = errors.New("process not found")
	ErrKillFailed      = errors.New("kill operation failed")
)
