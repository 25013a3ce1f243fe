// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"fmt"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// Output frame geometry and rates.
const (
	FrameWidth  = 1080
	FrameHeight = 1920
	FrameRate   = 30

	captionBottomMargin = 60
	emphasisFontScale   = 1.1
	emphasisColor       = "gold"
)

// SegmentInput is everything the adapter needs to render one scene.
type SegmentInput struct {
	Plan       []model.EditSegment
	Visuals    []model.VisualClip
	Captions   []model.Caption
	AudioPath  string
	DurationMS int
}

// BuildGraph produces the filter_complex script and the ordered list of
// clip input paths for one scene render. Input index i in the graph
// corresponds to inputs[i]; the narration audio is appended by the
// caller as the last input.
func BuildGraph(in SegmentInput) (graph string, inputs []string, err error) {
	clipByID := make(map[string]model.VisualClip, len(in.Visuals))
	for _, c := range in.Visuals {
		clipByID[c.ClipID] = c
	}

	inputIdx := make(map[string]int)
	for _, seg := range in.Plan {
		clip, ok := clipByID[seg.ClipID]
		if !ok {
			return "", nil, model.NewStageError("render", model.ErrAssetMissing,
				fmt.Sprintf("edit plan references unknown clip %q", seg.ClipID))
		}
		if _, seen := inputIdx[clip.Path]; !seen {
			inputIdx[clip.Path] = len(inputs)
			inputs = append(inputs, clip.Path)
		}
	}

	var b strings.Builder
	for i, seg := range in.Plan {
		clip := clipByID[seg.ClipID]
		idx := inputIdx[clip.Path]
		durSec := float64(seg.EndMS-seg.StartMS) / 1000

		// Upscale by the zoom factor first so the crop has slack to pan
		// within; force_original_aspect_ratio=increase guarantees full
		// coverage of the target frame.
		scaleW := int(float64(FrameWidth) * seg.Zoom)
		scaleH := int(float64(FrameHeight) * seg.Zoom)
		cropX, cropY := panOffsets(seg.Pan)

		fmt.Fprintf(&b,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d:%s:%s,fps=%d,format=yuv420p,trim=duration=%.3f,setpts=PTS-STARTPTS[seg%d];\n",
			idx, scaleW, scaleH, FrameWidth, FrameHeight, cropX, cropY, FrameRate, durSec, i)
	}

	for i := range in.Plan {
		fmt.Fprintf(&b, "[seg%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=0[video_out];\n", len(in.Plan))

	if len(in.Captions) == 0 {
		b.WriteString("[video_out]null[vout]\n")
		return b.String(), inputs, nil
	}

	b.WriteString("[video_out]")
	for i, c := range in.Captions {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(drawtext(c))
	}
	b.WriteString("[vout]\n")

	return b.String(), inputs, nil
}

// panOffsets returns crop x/y expressions: none centers, the directional
// pans pin the crop window to that extreme of the oversized frame.
func panOffsets(pan model.Pan) (x, y string) {
	x, y = "(iw-out_w)/2", "(ih-out_h)/2"
	switch pan {
	case model.PanLeft:
		x = "0"
	case model.PanRight:
		x = "iw-out_w"
	case model.PanUp:
		y = "0"
	case model.PanDown:
		y = "ih-out_h"
	}
	return x, y
}

func drawtext(c model.Caption) string {
	style := c.Style
	fontSize := style.FontSize
	color := style.Color
	if len(c.EmphasisIndices) > 0 {
		fontSize = int(float64(fontSize) * emphasisFontScale)
		color = emphasisColor
	}
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=%d:fontcolor=%s:shadowcolor=%s:shadowx=%d:shadowy=%d:x=(w-text_w)/2:y=h-text_h-%d:enable='between(t,%.3f,%.3f)'",
		escapeText(c.Text), fontSize, color, style.ShadowColor, style.ShadowOffset, style.ShadowOffset,
		captionBottomMargin, float64(c.StartMS)/1000, float64(c.EndMS)/1000)
}

// escapeText quotes the characters the filter parser treats specially.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`%`, `\%`,
	`,`, `\,`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
