// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package editplan turns captions, word timings, and a visual timeline
// into a validated per-scene cut list.
package editplan

import (
	"fmt"
	"sort"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

const (
	// MaxSegmentMS bounds every segment.
	MaxSegmentMS = 3000

	// GapToleranceMS is the seam slack before silence gets filled in.
	GapToleranceMS = 20

	// InterruptWindowMS is the habituation window: every such window
	// must contain a pattern interrupt.
	InterruptWindowMS = 2500

	// EmphasisZoom is applied to isolated emphasis segments.
	EmphasisZoom = 1.05
)

// segment is the working representation before flattening.
type segment struct {
	startMS   int
	endMS     int
	captionID string
	words     []model.WordTimestamp
	clipID    string
	zoom      float64
	pan       model.Pan
	reason    model.SegmentReason
}

// Build constructs the deterministic edit plan for one scene.
func Build(audio model.AudioResult, caps []model.Caption, visuals []model.VisualClip) ([]model.EditSegment, error) {
	durationMS := audio.DurationMS

	segs := baseSegments(audio, caps)
	segs = splitLong(segs)
	segs = isolateEmphasis(segs)
	segs = fillGaps(segs, durationMS)

	if err := attachVisuals(segs, visuals); err != nil {
		return nil, err
	}
	markEmphasis(segs)
	if err := applyInterrupts(segs, durationMS); err != nil {
		return nil, err
	}

	plan := make([]model.EditSegment, len(segs))
	for i, s := range segs {
		plan[i] = model.EditSegment{
			StartMS:   s.startMS,
			EndMS:     s.endMS,
			ClipID:    s.clipID,
			Zoom:      s.zoom,
			Pan:       s.pan,
			CaptionID: s.captionID,
			Reason:    s.reason,
		}
	}
	return plan, nil
}

// baseSegments maps captions 1:1 onto segments, carrying the words each
// caption spans so later passes can split on word boundaries.
func baseSegments(audio model.AudioResult, caps []model.Caption) []*segment {
	segs := make([]*segment, 0, len(caps))
	for i, c := range caps {
		var words []model.WordTimestamp
		for _, w := range audio.Timestamps {
			if w.StartMS >= c.StartMS && w.EndMS <= c.EndMS {
				words = append(words, w)
			}
		}
		segs = append(segs, &segment{
			startMS:   c.StartMS,
			endMS:     c.EndMS,
			captionID: fmt.Sprintf("caption_%d", i),
			words:     words,
			zoom:      1.0,
			pan:       model.PanNone,
			reason:    model.ReasonCut,
		})
	}
	return segs
}

// splitLong halves oversized segments at the nearest prior word
// boundary until everything fits MaxSegmentMS. Never splits mid-word.
func splitLong(segs []*segment) []*segment {
	out := make([]*segment, 0, len(segs))
	queue := append([]*segment(nil), segs...)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if s.endMS-s.startMS <= MaxSegmentMS {
			out = append(out, s)
			continue
		}

		cut := -1
		cutWord := 0
		for i, w := range s.words {
			if w.EndMS > s.startMS && w.EndMS <= s.startMS+MaxSegmentMS {
				cut = w.EndMS
				cutWord = i + 1
			}
		}
		if cut <= s.startMS {
			// No word boundary available; hard cut.
			cut = s.startMS + MaxSegmentMS
			cutWord = len(s.words)
		}

		head := &segment{
			startMS: s.startMS, endMS: cut,
			captionID: s.captionID, words: s.words[:cutWord],
			zoom: s.zoom, pan: s.pan, reason: s.reason,
		}
		tail := &segment{
			startMS: cut, endMS: s.endMS,
			captionID: s.captionID, words: s.words[cutWord:],
			zoom: s.zoom, pan: s.pan, reason: s.reason,
		}
		out = append(out, head)
		queue = append([]*segment{tail}, queue...)
	}
	return out
}

// isolateEmphasis splits segments so every emphasis word stands alone;
// runs of non-emphasis words stay together.
func isolateEmphasis(segs []*segment) []*segment {
	var out []*segment
	for _, s := range segs {
		hasEmphasis := false
		for _, w := range s.words {
			if w.Emphasis {
				hasEmphasis = true
				break
			}
		}
		if !hasEmphasis || len(s.words) <= 1 {
			out = append(out, s)
			continue
		}

		flushRun := func(run []model.WordTimestamp) {
			if len(run) == 0 {
				return
			}
			out = append(out, &segment{
				startMS: run[0].StartMS, endMS: run[len(run)-1].EndMS,
				captionID: s.captionID, words: run,
				zoom: 1.0, pan: s.pan, reason: s.reason,
			})
		}

		var run []model.WordTimestamp
		for _, w := range s.words {
			if w.Emphasis {
				flushRun(run)
				run = nil
				out = append(out, &segment{
					startMS: w.StartMS, endMS: w.EndMS,
					captionID: s.captionID, words: []model.WordTimestamp{w},
					zoom: 1.0, pan: s.pan, reason: s.reason,
				})
				continue
			}
			run = append(run, w)
		}
		flushRun(run)

		// Caption bounds may extend past the word span; widen the
		// flanking sub-segments to keep the timeline seamless.
		stretchBounds(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].startMS < out[j].startMS })
	return out
}

// stretchBounds widens the earliest and latest sub-segments of a split
// caption to the original caption bounds.
func stretchBounds(out []*segment, src *segment) {
	var first, last *segment
	for _, o := range out {
		if o.captionID != src.captionID {
			continue
		}
		if first == nil || o.startMS < first.startMS {
			first = o
		}
		if last == nil || o.endMS > last.endMS {
			last = o
		}
	}
	if first != nil && first.startMS > src.startMS {
		first.startMS = src.startMS
	}
	if last != nil && last.endMS < src.endMS {
		last.endMS = src.endMS
	}
}

// fillGaps closes every hole over GapToleranceMS with silence segments
// and pads the tail out to the full duration.
func fillGaps(segs []*segment, durationMS int) []*segment {
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].startMS < segs[j].startMS })

	var out []*segment
	cursor := 0
	silenceID := 0

	appendSilence := func(from, to int) {
		for from < to {
			end := from + MaxSegmentMS
			if end > to {
				end = to
			}
			out = append(out, &segment{
				startMS:   from,
				endMS:     end,
				captionID: fmt.Sprintf("silence_%d", silenceID),
				zoom:      1.0,
				pan:       model.PanNone,
				reason:    model.ReasonCut,
			})
			silenceID++
			from = end
		}
	}

	for _, s := range segs {
		if s.startMS-cursor > GapToleranceMS {
			appendSilence(cursor, s.startMS)
		}
		out = append(out, s)
		if s.endMS > cursor {
			cursor = s.endMS
		}
	}
	if durationMS-cursor > GapToleranceMS {
		appendSilence(cursor, durationMS)
	}
	return out
}

// attachVisuals binds each segment to the clip covering its start.
func attachVisuals(segs []*segment, visuals []model.VisualClip) error {
	for _, s := range segs {
		found := false
		for _, v := range visuals {
			if s.startMS >= v.StartMS && s.startMS < v.EndMS {
				s.clipID = v.ClipID
				found = true
				break
			}
		}
		if !found {
			// The final segment may start exactly at the timeline end.
			if len(visuals) > 0 && s.startMS >= visuals[len(visuals)-1].EndMS {
				s.clipID = visuals[len(visuals)-1].ClipID
				continue
			}
			return model.NewStageError("editplan", model.ErrTimingMismatch,
				fmt.Sprintf("no visual covers segment at %dms", s.startMS))
		}
	}
	return nil
}

// markEmphasis zooms isolated emphasis words.
func markEmphasis(segs []*segment) {
	for _, s := range segs {
		if len(s.words) == 1 && s.words[0].Emphasis {
			s.zoom = EmphasisZoom
			s.reason = model.ReasonEmphasis
		}
	}
}

// applyInterrupts forces a deterministic pan change in every habituation
// window. An all-emphasis window is unsatisfiable and fatal.
func applyInterrupts(segs []*segment, durationMS int) error {
	for winStart := 0; winStart < durationMS; winStart += InterruptWindowMS {
		winEnd := winStart + InterruptWindowMS
		if winEnd > durationMS {
			winEnd = durationMS
		}

		satisfied := false
		for _, s := range segs {
			if s.endMS <= winStart || s.startMS >= winEnd {
				continue
			}
			if s.reason == model.ReasonEmphasis {
				continue
			}
			s.pan = interruptPan(s.clipID)
			s.reason = model.ReasonPatternInterrupt
			satisfied = true
			break
		}
		if !satisfied {
			return model.NewStageError("editplan", model.ErrTimingMismatch,
				fmt.Sprintf("window at %dms contains only emphasis segments", winStart))
		}
	}
	return nil
}

// interruptPan derives a stable non-neutral pan from the clip ID.
func interruptPan(clipID string) model.Pan {
	sum := 0
	for _, r := range clipID {
		sum += int(r)
	}
	return model.PANS[(sum%(len(model.PANS)-1))+1]
}
