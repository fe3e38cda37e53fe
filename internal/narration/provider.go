package narration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/snonux/wordreel/internal/artifacts"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

// Provider defines the interface for text-to-speech providers. Synthesize
// returns the path of a freshly written audio artifact; the caller owns the
// file from then on.
type Provider interface {
	Synthesize(ctx context.Context, rec vocab.WordRecord) (string, error)

	// Name returns the provider name
	Name() string
}

// Error wraps a narration failure with the operation that caused it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("narration %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds common configuration for narration providers
type Config struct {
	Provider string // Provider name: "http" or "openai"

	// HTTP service settings
	ServiceURL  string
	ServiceCode string // access code appended to the request URL
	Voice       string // SSML voice name embedded in the script
	Locale      string
	Timeout     time.Duration

	// OpenAI-specific settings
	OpenAIKey   string
	OpenAIModel string // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice string // "alloy", "echo", "fable", "onyx", "nova", "shimmer", ...
	OpenAISpeed float64
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:    "http",
		Voice:       "en-US-AndrewNeural",
		Locale:      "en-US",
		Timeout:     60 * time.Second,
		OpenAIModel: "tts-1",
		OpenAIVoice: "onyx",
		OpenAISpeed: 1.0,
	}
}

// NewProvider creates the appropriate narration provider based on configuration
func NewProvider(config *Config, store *artifacts.Store, logger *slog.Logger) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "http":
		if config.ServiceURL == "" {
			return nil, fmt.Errorf("narration service URL is required")
		}
		return NewHTTPProvider(config, store), nil

	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config, store)

	default:
		return nil, fmt.Errorf("unknown narration provider: %s", config.Provider)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   *slog.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderWithFallback{primary: primary, fallback: fallback, logger: logger}
}

// Synthesize tries the primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) Synthesize(ctx context.Context, rec vocab.WordRecord) (string, error) {
	path, err := p.primary.Synthesize(ctx, rec)
	if err == nil {
		return path, nil
	}
	p.logger.Warn("primary narration provider failed, falling back",
		slog.String("primary", p.primary.Name()),
		slog.String("fallback", p.fallback.Name()),
		slog.String("error", err.Error()))
	return p.fallback.Synthesize(ctx, rec)
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}
