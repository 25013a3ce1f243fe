// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package timing synthesizes deterministic word-level timestamps for
// narration without requiring real audio analysis.
package timing

import (
	"regexp"
	"strings"
)

// emphasisTriggers are contrast and urgency words that stretch timing,
// isolate in the edit plan, and zoom at render time.
var emphasisTriggers = map[string]struct{}{
	"but": {}, "however": {}, "instead": {}, "secret": {}, "hidden": {},
	"mastery": {}, "always": {}, "never": {}, "must": {}, "only": {},
	"stop": {}, "start": {}, "limit": {},
}

var (
	nonWord  = regexp.MustCompile(`\W`)
	allDigit = regexp.MustCompile(`^\d+$`)
)

// Normalize lower-cases a token and strips non-word characters.
func Normalize(word string) string {
	return nonWord.ReplaceAllString(strings.ToLower(word), "")
}

// IsEmphasis reports whether the token triggers emphasis: any number,
// or a member of the trigger lexicon.
func IsEmphasis(word string) bool {
	tok := Normalize(word)
	if tok == "" {
		return false
	}
	if allDigit.MatchString(tok) {
		return true
	}
	_, ok := emphasisTriggers[tok]
	return ok
}
