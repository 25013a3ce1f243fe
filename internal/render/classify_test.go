// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"testing"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want model.ErrorType
	}{
		{"clip.mp4: No such file or directory", model.ErrAssetMissing},
		{"Option 'x' does not exist", model.ErrAssetMissing},
		{"Non-monotonic DTS in output stream", model.ErrTimingMismatch},
		{"Timestamps are unset in a packet", model.ErrTimingMismatch},
		{"Invalid PTS at frame 12", model.ErrTimingMismatch},
		{"DTS discontinuity in stream 0", model.ErrTimingMismatch},
		{"Unknown encoder 'libx265'", model.ErrCodecFailure},
		{"Unknown decoder 'vp9'", model.ErrCodecFailure},
		{"Invalid data found when processing input", model.ErrCodecFailure},
		{"moov atom not found", model.ErrCodecFailure},
		{"Error while decoding stream #0:0", model.ErrCodecFailure},
		{"Cannot allocate memory", model.ErrResourceExhaustion},
		{"av_malloc: out of memory", model.ErrResourceExhaustion},
		{"No space left on device", model.ErrResourceExhaustion},
		{"accept: too many open files", model.ErrResourceExhaustion},
		{"something completely different", model.ErrUnknown},
		{"", model.ErrUnknown},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(tc.msg), tc.msg)
	}
}
