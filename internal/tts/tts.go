// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package tts writes narration audio to disk. The deterministic timing
// model is authoritative; synthesis only has to produce a playable file.
package tts

import (
	"context"
)

// Synthesizer renders narration text into an audio file at outPath.
// durationMS is the timing model's authoritative duration, used by
// implementations that cannot infer length from the text.
type Synthesizer interface {
	// Ext returns the file extension the synthesizer produces (".mp3").
	Ext() string
	Synthesize(ctx context.Context, text string, durationMS int, outPath string) error
}

// Select returns the best available synthesizer: premium TTS when a key
// is configured, silent WAV otherwise.
func Select(elevenLabsKey string) Synthesizer {
	if elevenLabsKey != "" {
		return NewElevenLabs(elevenLabsKey)
	}
	return &Silent{}
}
