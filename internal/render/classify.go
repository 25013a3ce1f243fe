// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// classifyPatterns maps renderer stderr substrings to error types.
// Checked in order; first hit wins.
var classifyPatterns = []struct {
	substr string
	typ    model.ErrorType
}{
	{"no such file or directory", model.ErrAssetMissing},
	{"does not exist", model.ErrAssetMissing},
	{"non-monotonic", model.ErrTimingMismatch},
	{"timestamps are unset", model.ErrTimingMismatch},
	{"invalid pts", model.ErrTimingMismatch},
	{"dts discontinuity", model.ErrTimingMismatch},
	{"unknown encoder", model.ErrCodecFailure},
	{"unknown decoder", model.ErrCodecFailure},
	{"invalid data found", model.ErrCodecFailure},
	{"moov atom not found", model.ErrCodecFailure},
	{"error while decoding", model.ErrCodecFailure},
	{"cannot allocate memory", model.ErrResourceExhaustion},
	{"out of memory", model.ErrResourceExhaustion},
	{"no space left on device", model.ErrResourceExhaustion},
	{"too many open files", model.ErrResourceExhaustion},
}

// Classify maps a renderer failure message to an error type.
func Classify(msg string) model.ErrorType {
	lower := strings.ToLower(msg)
	for _, p := range classifyPatterns {
		if strings.Contains(lower, p.substr) {
			return p.typ
		}
	}
	return model.ErrUnknown
}
