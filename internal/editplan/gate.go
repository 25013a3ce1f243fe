// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package editplan

import (
	"fmt"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// TailToleranceMS is the permitted shortfall at the plan's end.
const TailToleranceMS = 200

// Gate validates an edit plan: contiguous coverage, bounded segments,
// emphasis-only zoom, and an interrupt in every habituation window.
func Gate(plan []model.EditSegment, durationMS int) model.Result {
	var errs []string

	if len(plan) == 0 {
		return model.Reject("empty edit plan")
	}

	if plan[0].StartMS > GapToleranceMS {
		errs = append(errs, fmt.Sprintf("plan starts at %dms, expected 0", plan[0].StartMS))
	}

	for i, s := range plan {
		if d := s.EndMS - s.StartMS; d > MaxSegmentMS {
			errs = append(errs, fmt.Sprintf("segment %d spans %dms, max %dms", i, d, MaxSegmentMS))
		}
		if s.Zoom != 1.0 && s.Reason != model.ReasonEmphasis {
			errs = append(errs, fmt.Sprintf("segment %d has zoom %.2f without emphasis", i, s.Zoom))
		}
		if i > 0 {
			seam := s.StartMS - plan[i-1].EndMS
			if seam > GapToleranceMS || seam < -GapToleranceMS {
				errs = append(errs, fmt.Sprintf("seam between segment %d and %d is %dms", i-1, i, seam))
			}
		}
	}

	last := plan[len(plan)-1]
	if last.EndMS < durationMS-TailToleranceMS || last.EndMS > durationMS+GapToleranceMS {
		errs = append(errs, fmt.Sprintf("plan ends at %dms, target %dms", last.EndMS, durationMS))
	}

	for winStart := 0; winStart < durationMS; winStart += InterruptWindowMS {
		winEnd := winStart + InterruptWindowMS
		if winEnd > durationMS {
			winEnd = durationMS
		}
		found := false
		for _, s := range plan {
			if s.EndMS <= winStart || s.StartMS >= winEnd {
				continue
			}
			if s.Reason == model.ReasonPatternInterrupt {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("no pattern interrupt in window starting %dms", winStart))
		}
	}

	if len(errs) > 0 {
		return model.Reject(errs...)
	}
	return model.OK()
}
