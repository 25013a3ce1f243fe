// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package timing

import (
	"strings"
	"testing"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_AcceptsCleanAudio(t *testing.T) {
	audio := model.AudioResult{
		Timestamps: []model.WordTimestamp{
			{Word: "a", StartMS: 0, EndMS: 300},
			{Word: "b", StartMS: 300, EndMS: 600},
		},
		DurationMS: 600,
	}
	assert.True(t, Gate(audio, 30).Valid)
}

func TestGate_RejectsSilenceGap(t *testing.T) {
	audio := model.AudioResult{
		Timestamps: []model.WordTimestamp{
			{Word: "a", StartMS: 0, EndMS: 300},
			{Word: "b", StartMS: 1000, EndMS: 1300},
		},
		DurationMS: 1300,
	}
	res := Gate(audio, 30)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Massive silence gap detected: 700ms")
}

func TestGate_RejectsOverlapAndInversion(t *testing.T) {
	audio := model.AudioResult{
		Timestamps: []model.WordTimestamp{
			{Word: "a", StartMS: 0, EndMS: 300},
			{Word: "b", StartMS: 200, EndMS: 500},
			{Word: "c", StartMS: 500, EndMS: 500},
		},
		DurationMS: 500,
	}
	res := Gate(audio, 30)
	require.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
}

func TestGate_RejectsOvershoot(t *testing.T) {
	audio := model.AudioResult{
		Timestamps: []model.WordTimestamp{{Word: "a", StartMS: 0, EndMS: 300}},
		DurationMS: 34000,
	}
	// 30s target * 1.1 slack = 33000ms limit.
	res := Gate(audio, 30)
	assert.False(t, res.Valid)
}

func TestGateTotal(t *testing.T) {
	assert.True(t, GateTotal(33000, 30).Valid)

	res := GateTotal(33001, 30)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "total audio duration 33001ms exceeds limit 33000ms")
}

func TestGateTotal_CatchesAggregateOvershoot(t *testing.T) {
	// Seven 34-word scenes each clear the per-scene gate comfortably,
	// yet the concatenated total lands at more than double the limit.
	text := strings.TrimSpace(strings.Repeat("steady ", 34))
	scenes := make([]model.Scene, model.SceneCount)
	for i, typ := range model.SceneTypes {
		scenes[i] = model.Scene{Type: typ, Text: text}
	}
	scr := model.Script{Scenes: scenes}

	total := 0
	for i, scene := range scr.Scenes {
		audio := SynthesizeScene(scene, i, model.SceneCount)
		assert.True(t, Gate(audio, 30).Valid, "scene %d", i)
		total += audio.DurationMS
	}

	assert.Equal(t, total, ProjectedTotalMS(scr))
	assert.Equal(t, 74100, total)
	assert.False(t, GateTotal(total, 30).Valid)
}
