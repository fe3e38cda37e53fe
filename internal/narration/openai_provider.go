package narration

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/wordreel/internal/artifacts"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

// OpenAIProvider implements Provider using OpenAI TTS. It receives the
// plain script without the SSML voice tag; voice selection is an API field.
type OpenAIProvider struct {
	client *openai.Client
	config *Config
	store  *artifacts.Store
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config, store *artifacts.Store) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return &OpenAIProvider{
		client: openai.NewClient(config.OpenAIKey),
		config: config,
		store:  store,
	}, nil
}

// Synthesize generates audio using OpenAI TTS
func (p *OpenAIProvider) Synthesize(ctx context.Context, rec vocab.WordRecord) (string, error) {
	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          BuildScript(rec),
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		return "", &Error{Op: "synthesize", Err: fmt.Errorf("OpenAI TTS API error: %w", err)}
	}
	defer response.Close()

	outputFile := p.store.NewPath("mp3")
	out, err := os.Create(outputFile)
	if err != nil {
		return "", &Error{Op: "write", Err: err}
	}
	defer out.Close()

	written, err := io.Copy(out, response)
	if err != nil {
		os.Remove(outputFile)
		return "", &Error{Op: "write", Err: err}
	}
	if written == 0 {
		os.Remove(outputFile)
		return "", &Error{Op: "synthesize", Err: fmt.Errorf("no audio data received from OpenAI")}
	}

	return outputFile, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}
