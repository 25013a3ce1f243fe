// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineRing_Basic(t *testing.T) {
	r := NewLineRing(3)
	_, err := r.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, r.LastN(5))
	assert.Equal(t, []string{"two"}, r.LastN(1))
}

func TestLineRing_Wraps(t *testing.T) {
	r := NewLineRing(3)
	for i := 1; i <= 5; i++ {
		_, _ = r.Write([]byte(fmt.Sprintf("line%d\n", i)))
	}
	assert.Equal(t, []string{"line3", "line4", "line5"}, r.LastN(3))
}

func TestLineRing_DropsEmptyLines(t *testing.T) {
	r := NewLineRing(4)
	_, _ = r.Write([]byte("\n\na\n\nb\n"))
	assert.Equal(t, []string{"a", "b"}, r.LastN(4))
}

func TestLineRing_DefaultCapacity(t *testing.T) {
	r := NewLineRing(0)
	_, _ = r.Write([]byte("x\n"))
	assert.Equal(t, []string{"x"}, r.LastN(1))
}
