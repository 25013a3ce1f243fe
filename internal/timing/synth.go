// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package timing

import (
	"math"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

const (
	// BaseWordMS is the per-word duration before multipliers.
	BaseWordMS = 300

	// Section pacing multipliers: hooks run fast, endings linger.
	HookMultiplier   = 0.8
	BodyMultiplier   = 1.0
	EndingMultiplier = 1.2

	// EmphasisStretch lengthens trigger words.
	EmphasisStretch = 1.15

	// Inter-scene pause bounds.
	pauseFraction = 0.15
	pauseMinMS    = 150
	pauseMaxMS    = 450
)

// Pacing is the multiplier set applied across a script.
var Pacing = model.PacingMeta{
	HookMultiplier:   HookMultiplier,
	BodyMultiplier:   BodyMultiplier,
	EndingMultiplier: EndingMultiplier,
}

// SectionMultiplier returns the duration multiplier for scene index i of n.
func SectionMultiplier(i, n int) float64 {
	switch {
	case i == 0:
		return HookMultiplier
	case i == n-1:
		return EndingMultiplier
	default:
		return BodyMultiplier
	}
}

// SynthesizeScene assigns word timestamps for one scene's text. The scene
// timeline starts at 0; a trailing inter-scene pause is folded into the
// scene duration for every scene but the last, so the rendered segments
// concatenate with natural breathing room.
func SynthesizeScene(scene model.Scene, index, total int) model.AudioResult {
	mult := SectionMultiplier(index, total)
	words := strings.Fields(scene.Text)

	cursor := 0
	timestamps := make([]model.WordTimestamp, 0, len(words))
	for _, w := range words {
		emphasis := IsEmphasis(w)
		d := BaseWordMS * mult
		if emphasis {
			d *= EmphasisStretch
		}
		dur := int(math.Round(d))
		timestamps = append(timestamps, model.WordTimestamp{
			Word:     strings.TrimSpace(w),
			StartMS:  cursor,
			EndMS:    cursor + dur,
			Emphasis: emphasis,
		})
		cursor += dur
	}

	if index < total-1 {
		cursor += scenePause(cursor)
	}

	return model.AudioResult{
		Timestamps: timestamps,
		DurationMS: cursor,
		Pacing:     Pacing,
	}
}

// ProjectedTotalMS returns the job-level duration of a script: the sum
// of every scene's synthesized duration, pauses included. Timing is
// deterministic, so the projection matches the concatenated total
// exactly.
func ProjectedTotalMS(scr model.Script) int {
	total := 0
	for i, scene := range scr.Scenes {
		total += SynthesizeScene(scene, i, len(scr.Scenes)).DurationMS
	}
	return total
}

// scenePause derives the inter-scene pause from the spoken duration.
func scenePause(sectionMS int) int {
	p := int(math.Round(float64(sectionMS) * pauseFraction))
	if p < pauseMinMS {
		return pauseMinMS
	}
	if p > pauseMaxMS {
		return pauseMaxMS
	}
	return p
}
