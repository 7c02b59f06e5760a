package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	NameDeepSeek  = "deepseek"
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
)

// ErrUnknownProvider is returned by New for an unrecognised provider name.
var ErrUnknownProvider = errors.New("unknown provider")

// Settings selects and configures a backend. Zero values pick the
// provider's defaults.
type Settings struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature *float64
	HTTPClient  *http.Client
}

// New builds the Generator named by s.Provider.
func New(s Settings) (Generator, error) {
	switch strings.ToLower(s.Provider) {
	case "", NameDeepSeek:
		return newOpenAICompatible(NameDeepSeek, DeepSeekBaseURL, DeepSeekModel, s), nil
	case NameOpenAI:
		return newOpenAICompatible(NameOpenAI, OpenAIBaseURL, OpenAIModel, s), nil
	case NameAnthropic:
		g := NewAnthropicGenerator(NewAnthropicClient(s.APIKey, anthropicOptions(s)...), s.Model, int64(s.MaxTokens))
		g.Temperature = s.Temperature
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
}

func newOpenAICompatible(name, baseURL, model string, s Settings) *OpenAIGenerator {
	g := &OpenAIGenerator{
		Name:        name,
		BaseURL:     baseURL,
		APIKey:      s.APIKey,
		Model:       model,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
		HTTPClient:  s.HTTPClient,
	}
	if s.BaseURL != "" {
		g.BaseURL = s.BaseURL
	}
	if s.Model != "" {
		g.Model = s.Model
	}
	return g
}
