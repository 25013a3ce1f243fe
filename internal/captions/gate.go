// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package captions

import (
	"fmt"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// TailSlackMS is how far past the audio the last caption may linger.
const TailSlackMS = 100

// Gate validates a caption timeline against its audio duration.
func Gate(caps []model.Caption, audioDurationMS int) model.Result {
	var errs []string

	for i, c := range caps {
		if n := len(strings.Fields(c.Text)); n > MaxWords {
			errs = append(errs, fmt.Sprintf("caption %d has %d words, max %d", i, n, MaxWords))
		}
		if d := c.EndMS - c.StartMS; d > MaxDurationMS {
			errs = append(errs, fmt.Sprintf("caption %d spans %dms, max %dms", i, d, MaxDurationMS))
		}
		if i > 0 && c.StartMS < caps[i-1].EndMS {
			errs = append(errs, fmt.Sprintf("caption %d overlaps caption %d", i, i-1))
		}
	}

	if len(caps) > 0 {
		if last := caps[len(caps)-1]; last.EndMS > audioDurationMS+TailSlackMS {
			errs = append(errs, fmt.Sprintf("last caption ends at %dms, past audio %dms", last.EndMS, audioDurationMS))
		}
	}

	if len(errs) > 0 {
		return model.Reject(errs...)
	}
	return model.OK()
}
