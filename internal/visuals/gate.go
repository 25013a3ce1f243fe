// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package visuals

import (
	"fmt"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

const (
	// SeamToleranceMS is the permitted gap or overlap between clips.
	SeamToleranceMS = 20

	// TailToleranceMS is the permitted shortfall at the timeline end.
	TailToleranceMS = 200
)

// Gate validates a visual timeline for coverage, clip bounds, and
// uniqueness. Reused clips are exempt from the uniqueness check.
func Gate(clips []model.VisualClip, durationMS int) model.Result {
	var errs []string

	if len(clips) == 0 {
		return model.Reject("empty visual timeline")
	}

	if clips[0].StartMS > SeamToleranceMS {
		errs = append(errs, fmt.Sprintf("timeline starts at %dms, expected 0", clips[0].StartMS))
	}

	seen := make(map[string]struct{}, len(clips))
	for i, c := range clips {
		d := c.EndMS - c.StartMS
		// A scene shorter than MinClipMS is covered by one clip spanning
		// the whole scene; the lower bound applies once the timeline
		// splits.
		if (d < MinClipMS && len(clips) > 1) || d > MaxClipMS {
			errs = append(errs, fmt.Sprintf("clip %d duration %dms outside [%d, %d]", i, d, MinClipMS, MaxClipMS))
		}
		if i > 0 {
			seam := c.StartMS - clips[i-1].EndMS
			if seam > SeamToleranceMS || seam < -SeamToleranceMS {
				errs = append(errs, fmt.Sprintf("seam between clip %d and %d is %dms", i-1, i, seam))
			}
		}
		if _, dup := seen[c.ClipID]; dup && !c.Reused {
			errs = append(errs, fmt.Sprintf("clip %d repeats id %s without reuse flag", i, c.ClipID))
		}
		seen[c.ClipID] = struct{}{}
	}

	last := clips[len(clips)-1]
	if last.EndMS < durationMS-TailToleranceMS || last.EndMS > durationMS+SeamToleranceMS {
		errs = append(errs, fmt.Sprintf("timeline ends at %dms, target %dms", last.EndMS, durationMS))
	}

	if len(errs) > 0 {
		return model.Reject(errs...)
	}
	return model.OK()
}
