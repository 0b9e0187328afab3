// Package arbiter resolves conflicting edits that the auto-merge engine
// cannot, by delegating to an external reasoning engine and strictly
// validating its structured response.
package arbiter

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
	// DefaultMaxTokens bounds the engine's response budget per file.
	DefaultMaxTokens = 8192

	// DefaultTemperature keeps decoding low-variance: merges should be
	// consistent, not creative.
	DefaultTemperature = 0.1
)

// Request is the structured input the arbiter sends to the reasoning engine.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Engine is the black-box reasoning call: structured request in, raw
// response text out. The only blocking operation in the integration engine.
type Engine interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// HTTPEngine talks to an OpenAI-compatible chat-completions endpoint.
type HTTPEngine struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewHTTPEngine creates an engine client.
// baseURL is the API root, e.g. "https://api.openai.com/v1".
func NewHTTPEngine(baseURL, apiKey, model string) *HTTPEngine {
	return &HTTPEngine{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete issues one chat-completions call and returns the raw text of the
// first choice.
func (e *HTTPEngine) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", e.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.apiKey))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("reasoning engine request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reasoning engine returned status %d: %s",
			resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal engine response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("reasoning engine error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("reasoning engine returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
