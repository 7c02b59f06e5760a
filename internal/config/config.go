// Package config loads agent configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petasbytes/minutes-agent/internal/provider"
)

// ErrMissingCredential means no generation-service key was configured.
var ErrMissingCredential = errors.New("missing generation service credential")

// Config holds all agent configuration.
type Config struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Listen      string        `yaml:"listen"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	LogLevel    string        `yaml:"log_level"`
	Prompts     PromptsConfig `yaml:"prompts"`
	Summary     SummaryConfig `yaml:"summary"`
}

// PromptsConfig points at files replacing the built-in instructions.
type PromptsConfig struct {
	InterviewFile string `yaml:"interview_file"`
	MinutesFile   string `yaml:"minutes_file"`
}

// SummaryConfig tunes transcript rendering.
type SummaryConfig struct {
	IncludeUnanswered bool `yaml:"include_unanswered"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	temp := 1.0
	return Config{
		Provider:    provider.NameDeepSeek,
		Temperature: &temp,
		MaxTokens:   4096,
		Listen:      ":8080",
		SessionTTL:  2 * time.Hour,
		LogLevel:    "info",
	}
}

// DefaultSearchPaths returns the config file search order after an explicit path.
func DefaultSearchPaths() []string {
	paths := []string{"minutes.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "minutes", "minutes.yaml"))
	}
	return paths
}

// FindConfig locates a config file. An explicit path must exist. Otherwise
// the first existing DefaultSearchPaths entry is returned, or "" if none.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Load reads path (if non-empty) over Default, then applies environment
// overrides. It does not require the credential; see Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Provider, "MINUTES_PROVIDER")
	setFromEnv(&c.Model, "MINUTES_MODEL")
	setFromEnv(&c.BaseURL, "MINUTES_BASE_URL")
	setFromEnv(&c.Listen, "MINUTES_LISTEN")
	setFromEnv(&c.LogLevel, "MINUTES_LOG_LEVEL")
	c.Provider = strings.ToLower(c.Provider)

	if c.APIKey != "" {
		return
	}
	setFromEnv(&c.APIKey, "MINUTES_API_KEY")
	if c.APIKey == "" {
		setFromEnv(&c.APIKey, providerKeyEnv(c.Provider))
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// providerKeyEnv names the vendor's conventional key variable.
func providerKeyEnv(name string) string {
	switch name {
	case provider.NameAnthropic:
		return "ANTHROPIC_API_KEY"
	case provider.NameOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "DEEPSEEK_API_KEY"
	}
}

// Validate reports configuration the shells cannot start with.
func (c Config) Validate() error {
	switch c.Provider {
	case provider.NameDeepSeek, provider.NameOpenAI, provider.NameAnthropic:
	default:
		return fmt.Errorf("%w: %q", provider.ErrUnknownProvider, c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: set api_key, MINUTES_API_KEY or %s", ErrMissingCredential, providerKeyEnv(c.Provider))
	}
	return nil
}

// ProviderSettings converts c for provider.New.
func (c Config) ProviderSettings() provider.Settings {
	return provider.Settings{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}
