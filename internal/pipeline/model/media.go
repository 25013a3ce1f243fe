// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// WordTimestamp is one word of narration with its synthesized timing.
type WordTimestamp struct {
	Word     string `json:"word"`
	StartMS  int    `json:"start_ms"`
	EndMS    int    `json:"end_ms"`
	Emphasis bool   `json:"emphasis"`
}

// PacingMeta records the per-section duration multipliers used by the
// timing synth. The auditor consumes it as part of the aggregate.
type PacingMeta struct {
	HookMultiplier   float64 `json:"hook_multiplier"`
	BodyMultiplier   float64 `json:"body_multiplier"`
	EndingMultiplier float64 `json:"ending_multiplier"`
}

// AudioResult is the outcome of audio synthesis for one scene.
// The timing model output is authoritative regardless of which
// synthesis path produced the file on disk.
type AudioResult struct {
	AudioPath  string          `json:"audio_path"`
	Timestamps []WordTimestamp `json:"timestamps"`
	DurationMS int             `json:"duration_ms"`
	Pacing     PacingMeta      `json:"pacing"`
}

// CaptionStyle holds the static render parameters of a caption.
type CaptionStyle struct {
	FontSize     int    `json:"font_size"`
	Color        string `json:"color"`
	ShadowColor  string `json:"shadow_color"`
	ShadowOffset int    `json:"shadow_offset"`
}

// DefaultCaptionStyle is applied to every grouped caption.
var DefaultCaptionStyle = CaptionStyle{
	FontSize:     64,
	Color:        "white",
	ShadowColor:  "black",
	ShadowOffset: 2,
}

// Caption is a 1-3 word on-screen text segment.
type Caption struct {
	Text            string       `json:"text"`
	StartMS         int          `json:"start_ms"`
	EndMS           int          `json:"end_ms"`
	EmphasisIndices []int        `json:"emphasis_indices"`
	Style           CaptionStyle `json:"style"`
}

// VisualClip is one placed piece of stock footage on a scene timeline.
type VisualClip struct {
	ClipID   string  `json:"clip_id"`
	Provider string  `json:"provider"`
	Path     string  `json:"path"`
	StartMS  int     `json:"start_ms"`
	EndMS    int     `json:"end_ms"`
	Keyword  string  `json:"keyword"`
	Zoom     float64 `json:"zoom"`
	Pan      Pan     `json:"pan"`

	// Reused marks a supply-shortage fallback selection. Diagnostics only;
	// downstream stages treat reused clips like any other.
	Reused bool `json:"reused,omitempty"`
}

// EditSegment is one cut of the per-scene edit plan.
type EditSegment struct {
	StartMS   int           `json:"start_ms"`
	EndMS     int           `json:"end_ms"`
	ClipID    string        `json:"clip_id"`
	Zoom      float64       `json:"zoom"`
	Pan       Pan           `json:"pan"`
	CaptionID string        `json:"caption_id"`
	Reason    SegmentReason `json:"reason"`
}

// SceneArtifacts aggregates everything a scene's sub-pipeline produced.
// The worker folds these into the auditor input after the render barrier.
type SceneArtifacts struct {
	Index       int           `json:"index"`
	Scene       Scene         `json:"scene"`
	Audio       AudioResult   `json:"audio"`
	Captions    []Caption     `json:"captions"`
	Visuals     []VisualClip  `json:"visuals"`
	Plan        []EditSegment `json:"plan"`
	SegmentPath string        `json:"segment_path"`
}
