// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package audit runs the final GO/NO-GO review over a finished video's
// aggregate metadata. The checks are heuristic retention signals, not
// structural validation; structural gates run earlier in the pipeline.
package audit

import (
	"math"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/ManuGH/reelforge/internal/script"
)

const (
	// pacingWindowWords is the sliding-window size for the uniformity check.
	pacingWindowWords = 5

	// pacingDeltaWPS is the words-per-second delta below which two adjacent
	// windows count as uniform.
	pacingDeltaWPS = 0.2

	// pacingUniformLimitMS is the accumulated uniform duration that
	// triggers a NO-GO.
	pacingUniformLimitMS = 4000
)

// hookGrabWords are confrontation markers that make an opening land
// even without a full curiosity pattern.
var hookGrabWords = []string{"but", "wrong", "lie", "secret", "nobody", "stop", "failed"}

// stanceMarkers must appear somewhere in the script for the video to
// take a position.
var stanceMarkers = []string{"isnt", "is not", "problem", "truth", "lies", "failed", "shouldnt"}

// politeEndings disqualify the final scene; a short video should end
// mid-thought, not wrap up.
var politeEndings = []string{"summary", "conclude", "in conclusion", "thank you", "follow for more"}

// Verdict is the auditor's decision. Reasons is empty iff Go is true.
type Verdict struct {
	Go      bool     `json:"go"`
	Reasons []string `json:"reasons,omitempty"`
}

// Audit reviews the script and the aggregated per-scene artifacts.
func Audit(s model.Script, scenes []model.SceneArtifacts) Verdict {
	var reasons []string

	if r := checkHookGrab(s.Hook()); r != "" {
		reasons = append(reasons, r)
	}
	if r := checkPacing(scenes); r != "" {
		reasons = append(reasons, r)
	}
	if r := checkStance(s); r != "" {
		reasons = append(reasons, r)
	}
	if r := checkEnding(s.Ending()); r != "" {
		reasons = append(reasons, r)
	}

	return Verdict{Go: len(reasons) == 0, Reasons: reasons}
}

// Err converts a failed verdict into a stage error; nil on GO.
func (v Verdict) Err() error {
	if v.Go {
		return nil
	}
	return model.NewStageError("audit", model.ErrAuditNoGo, strings.Join(v.Reasons, "; "))
}

func checkHookGrab(hook string) string {
	norm := normalizeText(hook)
	for _, w := range hookGrabWords {
		if strings.Contains(norm, w) {
			return ""
		}
	}
	if script.MatchesCuriosityPattern(hook) {
		return ""
	}
	return "First 2 seconds feel skippable"
}

// checkPacing slides 5-word windows (stride 5) over the global word
// timeline and accumulates the duration of stretches where adjacent
// windows differ by less than 0.2 words/second.
func checkPacing(scenes []model.SceneArtifacts) string {
	words := globalTimeline(scenes)
	if len(words) < 2*pacingWindowWords {
		return ""
	}

	type window struct {
		wps        float64
		durationMS int
	}
	var windows []window
	for i := 0; i+pacingWindowWords <= len(words); i += pacingWindowWords {
		start := words[i].StartMS
		end := words[i+pacingWindowWords-1].EndMS
		if end <= start {
			continue
		}
		windows = append(windows, window{
			wps:        float64(pacingWindowWords) * 1000 / float64(end-start),
			durationMS: end - start,
		})
	}

	uniformMS := 0
	for k := 1; k < len(windows); k++ {
		if math.Abs(windows[k].wps-windows[k-1].wps) < pacingDeltaWPS {
			uniformMS += windows[k].durationMS
			if uniformMS > pacingUniformLimitMS {
				return "Pacing feels uniform"
			}
		}
	}
	return ""
}

func checkStance(s model.Script) string {
	var all []string
	for _, scene := range s.Scenes {
		all = append(all, scene.Text)
	}
	norm := normalizeText(strings.Join(all, " "))
	for _, m := range stanceMarkers {
		if strings.Contains(norm, m) {
			return ""
		}
	}
	return "Video feels neutral and safe"
}

func checkEnding(ending string) string {
	norm := normalizeText(ending)
	for _, p := range politeEndings {
		if strings.Contains(norm, p) {
			return "Video feels complete/polite instead of intentionally unfinished"
		}
	}
	return ""
}

// globalTimeline concatenates per-scene timestamps, offsetting each
// scene by the cumulative duration of its predecessors so windows that
// straddle scene boundaries stay monotonic.
func globalTimeline(scenes []model.SceneArtifacts) []model.WordTimestamp {
	var out []model.WordTimestamp
	offset := 0
	for _, sc := range scenes {
		for _, w := range sc.Audio.Timestamps {
			w.StartMS += offset
			w.EndMS += offset
			out = append(out, w)
		}
		offset += sc.Audio.DurationMS
	}
	return out
}

// normalizeText lowercases and strips apostrophes so contractions like
// "isn't" match their marker form.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	return s
}
