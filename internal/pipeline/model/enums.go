// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package model holds the shared data types of the generation pipeline.
package model

// JobStatus is the client-visible lifecycle of a generation job.
// Sub-statuses between PROCESSING and the terminal states are
// informational; only the owning worker transitions them.
type JobStatus string

const (
	StatusQueued     JobStatus = "QUEUED"
	StatusProcessing JobStatus = "PROCESSING"
	StatusScripting  JobStatus = "SCRIPTING"
	StatusAudioGen   JobStatus = "AUDIO_GEN"
	StatusCaptionGen JobStatus = "CAPTION_GEN"
	StatusVisualGen  JobStatus = "VISUAL_GEN"
	StatusEditing    JobStatus = "EDITING"
	StatusEditReady  JobStatus = "EDIT_READY"
	StatusMerging    JobStatus = "MERGING"
	StatusAuditing   JobStatus = "AUDITING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// IsTerminal returns true if the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Tone selects the narration register of the generated script.
type Tone string

const (
	ToneInformative  Tone = "informative"
	ToneDramatic     Tone = "dramatic"
	ToneMotivational Tone = "motivational"
	ToneNeutral      Tone = "neutral"
)

// ValidTone reports whether t is one of the supported tones.
func ValidTone(t Tone) bool {
	switch t {
	case ToneInformative, ToneDramatic, ToneMotivational, ToneNeutral:
		return true
	}
	return false
}

// SceneType identifies a scene's position in the fixed 7-scene arc.
type SceneType string

const (
	SceneHook   SceneType = "hook"
	SceneBody1  SceneType = "body_1"
	SceneBody2  SceneType = "body_2"
	SceneBody3  SceneType = "body_3"
	SceneBody4  SceneType = "body_4"
	SceneBody5  SceneType = "body_5"
	SceneEnding SceneType = "ending"
)

// SceneCount is the mandatory number of scenes per script.
const SceneCount = 7

// SceneTypes lists the scene types in script order.
var SceneTypes = []SceneType{
	SceneHook, SceneBody1, SceneBody2, SceneBody3, SceneBody4, SceneBody5, SceneEnding,
}

// Pan is a camera pan direction applied to a clip.
type Pan string

const (
	PanNone  Pan = "none"
	PanLeft  Pan = "left"
	PanRight Pan = "right"
	PanUp    Pan = "up"
	PanDown  Pan = "down"
)

// PANS lists all pan directions; index 0 is the neutral "none".
var PANS = []Pan{PanNone, PanLeft, PanRight, PanUp, PanDown}

// SegmentReason records why an edit segment exists.
type SegmentReason string

const (
	ReasonCut              SegmentReason = "cut"
	ReasonEmphasis         SegmentReason = "emphasis"
	ReasonPatternInterrupt SegmentReason = "pattern_interrupt"
)
