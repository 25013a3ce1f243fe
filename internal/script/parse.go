// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"encoding/json"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// ParseScript strictly parses an oracle response into a Script. Models
// habitually wrap JSON in markdown fences; those are stripped first.
func ParseScript(raw string) (model.Script, error) {
	cleaned := stripFences(raw)

	var script model.Script
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&script); err != nil {
		// Retry leniently: some models add metadata fields we ignore.
		var lenient model.Script
		if lerr := json.Unmarshal([]byte(cleaned), &lenient); lerr != nil {
			return model.Script{}, model.WrapStageError("script", model.ErrParse, "oracle response is not valid script JSON", err)
		}
		script = lenient
	}

	for i := range script.Scenes {
		script.Scenes[i].Text = strings.TrimSpace(script.Scenes[i].Text)
		for k := range script.Scenes[i].Keywords {
			script.Scenes[i].Keywords[k] = strings.ToLower(strings.TrimSpace(script.Scenes[i].Keywords[k]))
		}
	}
	script.Fallback = false
	return script, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
