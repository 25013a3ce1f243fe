// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderClip_AbsentFallsBackToStubs(t *testing.T) {
	assert.Empty(t, placeholderClip(t.TempDir()))
}

func TestPlaceholderClip_UsedWhenProvisioned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "placeholder.mp4")
	require.NoError(t, os.WriteFile(path, []byte("clip"), 0o644))

	assert.Equal(t, path, placeholderClip(dir))
}
