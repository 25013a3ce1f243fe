// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
)

const (
	// MaxHookWords bounds the opening scene.
	MaxHookWords = 12

	// MaxEndingWords bounds the final scene.
	MaxEndingWords = 8

	// MaxGateAttempts is how often a rejected script may be regenerated.
	MaxGateAttempts = 3
)

// bannedHookPhrases disqualify a hook outright (case-insensitive
// substring match).
var bannedHookPhrases = []string{
	"did you know",
	"in this video",
	"let's talk about",
	"you won't believe",
}

// curiosityPatterns are the four accepted hook shapes.
var curiosityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(most|many|some)\s+(people|thinkers|experts)\s+think\b.+\bbut\b`),
	regexp.MustCompile(`(?i)\bnobody\s+(tells|told|is\s+telling)\s+you\s+this\s+about\b`),
	regexp.MustCompile(`(?i)\bthis\s+sounds\s+wrong,?\s+but\b`),
	regexp.MustCompile(`(?i)\b(isn't|is\s+not)\s+the\s+problem\..+\bis\.`),
}

// MatchesCuriosityPattern reports whether text satisfies any of the
// four curiosity shapes. Shared with the final auditor.
func MatchesCuriosityPattern(text string) bool {
	for _, p := range curiosityPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Gate validates script structure, hook, and ending. The deterministic
// fallback skeleton is exempt: it is the last resort by construction.
func Gate(s model.Script) model.Result {
	if s.Fallback {
		return model.OK()
	}

	var errs []string

	if len(s.Scenes) != model.SceneCount {
		errs = append(errs, fmt.Sprintf("expected %d scenes, got %d", model.SceneCount, len(s.Scenes)))
		return model.Reject(errs...)
	}

	for i, scene := range s.Scenes {
		if scene.Type != model.SceneTypes[i] {
			errs = append(errs, fmt.Sprintf("scene %d has type %q, expected %q", i, scene.Type, model.SceneTypes[i]))
		}
		if strings.TrimSpace(scene.Text) == "" {
			errs = append(errs, fmt.Sprintf("scene %d has empty text", i))
		}
	}

	hook := s.Hook()
	if n := wordCount(hook); n > MaxHookWords {
		errs = append(errs, fmt.Sprintf("hook has %d words, max %d", n, MaxHookWords))
	}
	lowerHook := strings.ToLower(hook)
	for _, phrase := range bannedHookPhrases {
		if strings.Contains(lowerHook, phrase) {
			errs = append(errs, fmt.Sprintf("hook contains banned phrase %q", phrase))
		}
	}
	if !MatchesCuriosityPattern(hook) {
		errs = append(errs, "hook matches no curiosity pattern")
	}

	if n := wordCount(s.Ending()); n > MaxEndingWords {
		errs = append(errs, fmt.Sprintf("ending has %d words, max %d", n, MaxEndingWords))
	}

	if len(errs) > 0 {
		return model.Reject(errs...)
	}
	return model.OK()
}

// KeywordCheck flags scenes with out-of-range keyword counts. Advisory:
// the scene processor logs findings without failing the job.
func KeywordCheck(scene model.Scene) model.Result {
	n := len(scene.Keywords)
	if n < 2 || n > 3 {
		return model.Reject(fmt.Sprintf("scene %q has %d keywords, want 2-3", scene.Type, n))
	}
	for _, kw := range scene.Keywords {
		if kw != strings.ToLower(kw) {
			return model.Reject(fmt.Sprintf("keyword %q is not lower-case", kw))
		}
	}
	return model.OK()
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
