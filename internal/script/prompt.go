// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"fmt"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

// Request carries the script generation parameters to the oracle.
type Request struct {
	Topic           string
	DurationSeconds int
	Tone            model.Tone
}

// BuildPrompt shapes the instruction the oracle must answer with strict
// JSON. The structural demands mirror the quality gate so a compliant
// answer passes on the first attempt.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d-second vertical short-form video script about %q in a %s tone.\n\n", req.DurationSeconds, req.Topic, req.Tone)
	b.WriteString(`Respond with ONLY a JSON object of this exact shape, no prose:
{"scenes":[{"type":"hook","text":"...","keywords":["...","..."]}, ...]}

Rules:
- Exactly 7 scenes with types in order: hook, body_1, body_2, body_3, body_4, body_5, ending.
- The hook is at most 12 words and must create curiosity, e.g.
  "Most people think X, but Y" or "Nobody tells you this about X"
  or "This sounds wrong, but ..." or "X isn't the problem. Y is."
- Never open with "did you know", "in this video", "let's talk about", or "you won't believe".
- The ending is at most 8 words and must NOT sound like a polite
  conclusion; no "thank you", no "summary", no "follow for more".
- Take a stance: name what is wrong, what fails, what the real problem is.
- Each scene has 2-3 keywords: concrete, lower-case nouns or actions
  suitable for stock footage search.
`)
	return b.String()
}
