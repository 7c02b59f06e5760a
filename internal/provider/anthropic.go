package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/minutes-agent/memory"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	Client      *anthropic.Client
	Model       anthropic.Model
	MaxTokens   int64
	Temperature *float64
}

// NewAnthropicClient returns a client with SDK retries disabled. An empty key
// falls back to ANTHROPIC_API_KEY, which the SDK reads itself.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *anthropic.Client {
	base := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		base = append(base, option.WithAPIKey(apiKey))
	}
	c := anthropic.NewClient(append(base, opts...)...)
	return &c
}

// NewAnthropicGenerator wraps client. A zero model selects DefaultAnthropicModel.
func NewAnthropicGenerator(client *anthropic.Client, model string, maxTokens int64) *AnthropicGenerator {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicGenerator{Client: client, Model: m, MaxTokens: maxTokens}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, t := range req.History {
		if t.Role == memory.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)))

	params := anthropic.MessageNewParams{
		Model:     g.Model,
		MaxTokens: g.MaxTokens,
		Messages:  msgs,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if g.Temperature != nil {
		params.Temperature = anthropic.Float(*g.Temperature)
	}

	msg, err := g.Client.Messages.New(ctx, params)
	if err != nil {
		return "", failure("anthropic", req.Op, err)
	}

	// Join visible text blocks; anything else (thinking etc.) is ignored.
	var parts []string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) == 0 {
		return "", failure("anthropic", req.Op, ErrEmptyResponse)
	}
	return strings.Join(parts, "\n"), nil
}

func anthropicOptions(s Settings) []option.RequestOption {
	var opts []option.RequestOption
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(s.HTTPClient))
	}
	return opts
}
