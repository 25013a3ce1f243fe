// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package captions groups word timings into short on-screen captions.
package captions

import (
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

const (
	// MaxWords bounds the words per caption.
	MaxWords = 3

	// MaxDurationMS bounds a caption's span. A word whose inclusion
	// would push the group past this starts a new group.
	MaxDurationMS = 900
)

// Group greedily packs word timestamps left to right into captions.
// Emphasis flags survive as indices local to each caption.
func Group(words []model.WordTimestamp) []model.Caption {
	captions := make([]model.Caption, 0, (len(words)+MaxWords-1)/MaxWords)

	var group []model.WordTimestamp
	flush := func() {
		if len(group) == 0 {
			return
		}
		texts := make([]string, len(group))
		var emphasis []int
		for i, w := range group {
			texts[i] = w.Word
			if w.Emphasis {
				emphasis = append(emphasis, i)
			}
		}
		captions = append(captions, model.Caption{
			Text:            strings.Join(texts, " "),
			StartMS:         group[0].StartMS,
			EndMS:           group[len(group)-1].EndMS,
			EmphasisIndices: emphasis,
			Style:           model.DefaultCaptionStyle,
		})
		group = group[:0]
	}

	for _, w := range words {
		if len(group) > 0 {
			if len(group) >= MaxWords || w.EndMS-group[0].StartMS > MaxDurationMS {
				flush()
			}
		}
		group = append(group, w)
	}
	flush()

	return captions
}
