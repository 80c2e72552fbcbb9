package questionbank

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Duration is a time.Duration written as a string ("30s") in YAML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// RemoteConfig configures the remote completion backend
type RemoteConfig struct {
	Model           string   `yaml:"model"`
	BaseURL         string   `yaml:"base_url"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	Temperature     float32  `yaml:"temperature"`
	Timeout         Duration `yaml:"timeout"`
}

// Config is the question bank tool configuration
type Config struct {
	Provider      string       `yaml:"provider"`
	Remote        RemoteConfig `yaml:",inline"`
	MinCount      int          `yaml:"min_count"`
	MaxCount      int          `yaml:"max_count"`
	Database      string       `yaml:"database"`
	TranscriptDir string       `yaml:"transcript_dir"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	cfg := Config{}
	cfg.Normalize()
	return cfg
}

// LoadConfig reads, parses, normalizes, and validates a config file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data and applies defaults
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize fills in defaults for unset fields
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Remote.MaxOutputTokens == 0 {
		c.Remote.MaxOutputTokens = 256
	}
	if c.Remote.Temperature == 0 {
		c.Remote.Temperature = 0.3
	}
	if c.Remote.Timeout.Duration == 0 {
		c.Remote.Timeout.Duration = 30 * time.Second
	}
	if c.MinCount == 0 {
		c.MinCount = 3
	}
	if c.MaxCount == 0 {
		c.MaxCount = 6
	}
	if c.Database == "" {
		c.Database = "./questionbank.db"
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.Remote.MaxOutputTokens < 0 {
		return fmt.Errorf("config: max_output_tokens must be positive")
	}
	if c.Remote.Temperature < 0 || c.Remote.Temperature > 2 {
		return fmt.Errorf("config: temperature must be within [0, 2]")
	}
	if c.Remote.Timeout.Duration < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	if c.MinCount < 1 {
		return fmt.Errorf("config: min_count must be at least 1")
	}
	if c.MaxCount < c.MinCount {
		return fmt.Errorf("config: max_count %d is below min_count %d", c.MaxCount, c.MinCount)
	}
	return nil
}

// APIKey looks up the credential for the configured provider.
// QBANK_API_KEY wins over the provider specific variable.
func (c *Config) APIKey(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if key := strings.TrimSpace(getenv("QBANK_API_KEY")); key != "" {
		return key
	}
	switch c.Provider {
	case ProviderOpenAI:
		return strings.TrimSpace(getenv("OPENAI_API_KEY"))
	case ProviderGemini:
		return strings.TrimSpace(getenv("GEMINI_API_KEY"))
	}
	return ""
}

// NewCompleter builds the completer for the configured provider. It
// returns a nil Completer, not an error, when the provider is "none" or
// no credential is set. The returned close func is never nil.
func NewCompleter(ctx context.Context, cfg Config, apiKey string) (Completer, func() error, error) {
	noop := func() error { return nil }
	if cfg.Provider == ProviderNone || apiKey == "" {
		GetLogger().Info("remote generation disabled", "provider", cfg.Provider, "has_key", apiKey != "")
		return nil, noop, nil
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAICompleter(apiKey, cfg.Remote), noop, nil
	case ProviderGemini:
		gc, err := NewGeminiCompleter(ctx, apiKey, cfg.Remote)
		if err != nil {
			return nil, noop, err
		}
		return gc, gc.Close, nil
	}
	return nil, noop, fmt.Errorf("config: unknown provider %q", cfg.Provider)
}
