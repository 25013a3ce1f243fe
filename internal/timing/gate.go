// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package timing

import (
	"fmt"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// MaxGapMS is the largest tolerated silence between consecutive words.
const MaxGapMS = 600

// durationSlack allows synthesized audio to overshoot the target by 10%.
const durationSlack = 1.1

// Gate validates a synthesized audio result against the job's duration
// target (seconds).
func Gate(audio model.AudioResult, targetSeconds int) model.Result {
	var errs []string

	limit := int(float64(targetSeconds) * 1000 * durationSlack)
	if audio.DurationMS > limit {
		errs = append(errs, fmt.Sprintf("audio duration %dms exceeds limit %dms", audio.DurationMS, limit))
	}

	ts := audio.Timestamps
	for i, t := range ts {
		if t.EndMS <= t.StartMS {
			errs = append(errs, fmt.Sprintf("word %d %q has non-positive duration", i, t.Word))
		}
		if i == 0 {
			continue
		}
		prev := ts[i-1]
		if t.StartMS < prev.EndMS {
			errs = append(errs, fmt.Sprintf("word %d %q overlaps previous word", i, t.Word))
		}
		if gap := t.StartMS - prev.EndMS; gap > MaxGapMS {
			errs = append(errs, fmt.Sprintf("Massive silence gap detected: %dms", gap))
		}
	}

	if len(errs) > 0 {
		return model.Reject(errs...)
	}
	return model.OK()
}

// GateTotal bounds the concatenated duration of all scenes against the
// job target. Per-scene gates cannot see the running total; this is the
// check that keeps the final video near the requested length.
func GateTotal(totalMS, targetSeconds int) model.Result {
	limit := int(float64(targetSeconds) * 1000 * durationSlack)
	if totalMS > limit {
		return model.Reject(fmt.Sprintf("total audio duration %dms exceeds limit %dms", totalMS, limit))
	}
	return model.OK()
}
