package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	DeepSeekModel   = "deepseek-reasoner"
	OpenAIBaseURL   = "https://api.openai.com/v1"
	OpenAIModel     = "gpt-4o-mini"

	// DefaultMaxResponseBytes caps how much of a response body is read.
	DefaultMaxResponseBytes int64 = 4 << 20
)

// ErrResponseTooLarge is wrapped when a response body exceeds the read cap.
var ErrResponseTooLarge = errors.New("response too large")

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint
// (DeepSeek, OpenAI, vLLM, Ollama).
type OpenAIGenerator struct {
	Name        string
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature *float64
	HTTPClient  *http.Client

	// MaxResponseBytes caps the response body; zero means DefaultMaxResponseBytes.
	MaxResponseBytes int64
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Generate sends one non-streaming chat completion request.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]chatMessage, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	for _, t := range req.History {
		msgs = append(msgs, chatMessage{Role: string(t.Role), Content: t.Text})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Input})

	body, err := json.Marshal(chatRequest{
		Model:       g.Model,
		Messages:    msgs,
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
	})
	if err != nil {
		return "", failure(g.name(), req.Op, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", failure(g.name(), req.Op, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", failure(g.name(), req.Op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	limit := g.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", failure(g.name(), req.Op, fmt.Errorf("read response: %w", err))
	}
	if int64(len(raw)) > limit {
		return "", failure(g.name(), req.Op, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, limit))
	}

	var out chatResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil {
			return "", failure(g.name(), req.Op, fmt.Errorf("HTTP %d: %s: %s", resp.StatusCode, out.Error.Type, out.Error.Message))
		}
		return "", failure(g.name(), req.Op, fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return "", failure(g.name(), req.Op, fmt.Errorf("decode response: %w", decodeErr))
	}
	if out.Error != nil {
		return "", failure(g.name(), req.Op, fmt.Errorf("%s: %s", out.Error.Type, out.Error.Message))
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", failure(g.name(), req.Op, ErrEmptyResponse)
	}
	return out.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) name() string {
	if g.Name == "" {
		return "openai"
	}
	return g.Name
}
