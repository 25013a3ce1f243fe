// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyRing(t *testing.T) {
	r := NewKeyRing([]string{"k1", "k2", "k3"})

	assert.False(t, r.Empty())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, "k1", r.Current())

	assert.False(t, r.Rotate())
	assert.Equal(t, "k2", r.Current())
	assert.False(t, r.Rotate())
	assert.Equal(t, "k3", r.Current())
	assert.True(t, r.Rotate(), "full cycle wraps")
	assert.Equal(t, "k1", r.Current())
}

func TestKeyRing_Empty(t *testing.T) {
	r := NewKeyRing(nil)
	assert.True(t, r.Empty())
	assert.Equal(t, "", r.Current())
	assert.True(t, r.Rotate())
}
