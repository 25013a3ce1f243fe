// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	elevenBaseURL      = "https://api.elevenlabs.io/v1"
	elevenDefaultVoice = "21m00Tcm4TlvDq8ikWAM"
	elevenModel        = "eleven_turbo_v2_5"
)

// ElevenLabs streams synthesized speech to disk as MP3.
type ElevenLabs struct {
	APIKey  string
	VoiceID string
	BaseURL string
	Client  *http.Client
}

// NewElevenLabs builds a client with a generous streaming timeout.
func NewElevenLabs(apiKey string) *ElevenLabs {
	return &ElevenLabs{
		APIKey:  apiKey,
		VoiceID: elevenDefaultVoice,
		BaseURL: elevenBaseURL,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Ext implements Synthesizer.
func (e *ElevenLabs) Ext() string { return ".mp3" }

type elevenRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize implements Synthesizer by streaming the response body to
// outPath.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string, _ int, outPath string) error {
	base := e.BaseURL
	if base == "" {
		base = elevenBaseURL
	}
	voice := e.VoiceID
	if voice == "" {
		voice = elevenDefaultVoice
	}

	body, err := json.Marshal(elevenRequest{Text: text, ModelID: elevenModel})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=mp3_44100_128", base, voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.APIKey)

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("elevenlabs: unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	tmp := outPath + ".part"
	// #nosec G304 -- outPath is built from validated job IDs
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, outPath)
}
