// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-2.0-flash"
)

// HTTPStatusError surfaces the oracle's HTTP status so the adapter can
// apply the retry/rotation policy.
type HTTPStatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Status)
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewGeminiClient builds a client with request timeouts.
func NewGeminiClient() *GeminiClient {
	return &GeminiClient{
		BaseURL: geminiBaseURL,
		Model:   geminiModel,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the raw model text.
func (c *GeminiClient) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = geminiBaseURL
	}
	mdl := c.Model
	if mdl == "" {
		mdl = geminiModel
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, mdl, apiKey)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPStatusError{Provider: "gemini", Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("gemini response decode: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response has no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
