package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.5-pro"
	DefaultMaxTokens   = 1024
)

// Config holds everything the analysis core needs for one run.
// It is built once at startup and passed by value.
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Timeout applies to the scanner's HTTP transport. Zero keeps the transport default.
	Timeout time.Duration
	// Normalize transcodes non-JPEG inputs to JPEG before upload.
	Normalize bool
}

// ModelName returns the configured model or the provider default
func (c Config) ModelName() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	if c.Provider == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// Validate checks the settings that can be rejected at startup.
// A missing API key is not an error here; the analyzer reports it per call.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q (valid: %s, %s)", c.Provider, ProviderOpenAI, ProviderGemini)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// Flags binds Config fields to an ff flag set. With ff.WithEnvVars the
// long names map to API_KEY, API_BASE_URL, MODEL_NAME and so on.
type Flags struct {
	provider  *string
	apiKey    *string
	baseURL   *string
	model     *string
	maxTokens *int
	timeout   *time.Duration
	normalize *bool
}

// RegisterFlags adds the analysis flags to fs
func RegisterFlags(fs *ff.FlagSet) *Flags {
	return &Flags{
		provider:  fs.StringLong("provider", ProviderOpenAI, "Model provider: 'openai' or 'gemini'"),
		apiKey:    fs.StringLong("api-key", "", "API key for the model provider (required)"),
		baseURL:   fs.StringLong("api-base-url", "", "Override the provider endpoint (any OpenAI-compatible /v1 URL)"),
		model:     fs.StringLong("model-name", "", "Model identifier (default gpt-4o, or gemini-2.5-pro for gemini)"),
		maxTokens: fs.IntLong("max-tokens", DefaultMaxTokens, "Output token limit for the reply"),
		timeout:   fs.DurationLong("timeout", 0, "HTTP timeout for the model call (0 = transport default)"),
		normalize: fs.BoolLong("normalize", "Transcode PNG/GIF/BMP/WebP/HEIC/PDF inputs to JPEG before upload"),
	}
}

// Config returns the parsed values. Call it after the flag set is parsed.
func (f *Flags) Config() Config {
	return Config{
		Provider:  strings.ToLower(strings.TrimSpace(*f.provider)),
		APIKey:    strings.TrimSpace(*f.apiKey),
		BaseURL:   strings.TrimSpace(*f.baseURL),
		Model:     strings.TrimSpace(*f.model),
		MaxTokens: *f.maxTokens,
		Timeout:   *f.timeout,
		Normalize: *f.normalize,
	}
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}
