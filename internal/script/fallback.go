// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"fmt"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// FallbackScript builds the canned 7-scene skeleton used when every
// oracle attempt failed. Deterministic and exempt from the quality gate.
func FallbackScript(topic string) model.Script {
	keywords := topicKeywords(topic)

	texts := []string{
		"Most people think they understand this, but they really don't",
		fmt.Sprintf("Here is what %s actually involves day to day", topic),
		"The first detail everyone misses is the most important one",
		"The common approach fails because it ignores the basics",
		"The real mechanism works in the opposite direction entirely",
		"Once you see it, you cannot unsee it",
		"Now you know what they don't",
	}

	scenes := make([]model.Scene, model.SceneCount)
	for i, t := range model.SceneTypes {
		scenes[i] = model.Scene{
			Type:     t,
			Text:     texts[i],
			Keywords: keywords,
		}
	}
	return model.Script{Scenes: scenes, Fallback: true}
}

// topicKeywords derives 2-3 concrete search terms from the topic string.
func topicKeywords(topic string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) < 4 { // skip stopword-sized tokens
			continue
		}
		words = append(words, w)
		if len(words) == 3 {
			break
		}
	}
	if len(words) < 2 {
		words = append(words, "abstract", "documentary")
		words = words[:2]
	}
	return words
}
