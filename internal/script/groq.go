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
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.3-70b-versatile"
)

// GroqClient calls the Groq OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewGroqClient builds a client with request timeouts.
func NewGroqClient(apiKey string) *GroqClient {
	return &GroqClient{
		APIKey:  apiKey,
		BaseURL: groqBaseURL,
		Model:   groqModel,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type groqRequest struct {
	Model          string        `json:"model"`
	Messages       []groqMessage `json:"messages"`
	ResponseFormat *groqFormat   `json:"response_format,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqFormat struct {
	Type string `json:"type"`
}

type groqResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt and returns the raw model text.
func (c *GroqClient) Generate(ctx context.Context, prompt string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = groqBaseURL
	}
	mdl := c.Model
	if mdl == "" {
		mdl = groqModel
	}

	body, err := json.Marshal(groqRequest{
		Model: mdl,
		Messages: []groqMessage{
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &groqFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPStatusError{Provider: "groq", Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed groqResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("groq response decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
