package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Enricher fills in missing pronunciation fields in a corpus file using
// the OpenAI chat API.
type Enricher struct {
	apiKey string
	client *openai.Client
}

// NewEnricher creates a new corpus enricher
func NewEnricher(apiKey string) *Enricher {
	return &Enricher{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// FillPronunciations rewrites the corpus file at path, adding an IPA
// pronunciation to every record that lacks one. Records that already have
// a pronunciation are left untouched. Returns the number of records updated.
func (e *Enricher) FillPronunciations(ctx context.Context, path string) (int, error) {
	if e.apiKey == "" {
		return 0, fmt.Errorf("OpenAI API key not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &LoadError{Path: path, Err: err}
	}

	var records []WordRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, &LoadError{Path: path, Err: err}
	}

	updated := 0
	for i, rec := range records {
		if rec.Pronunciation != "" || rec.Word == "" {
			continue
		}
		pron, err := e.fetchPronunciation(ctx, rec.Word)
		if err != nil {
			return updated, fmt.Errorf("pronunciation lookup for %q: %w", rec.Word, err)
		}
		records[i].Pronunciation = pron
		updated++
	}

	if updated == 0 {
		return 0, nil
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return updated, err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return updated, fmt.Errorf("failed to write corpus file: %w", err)
	}
	return updated, nil
}

func (e *Enricher) fetchPronunciation(ctx context.Context, word string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: openai.GPT4o,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an English pronunciation reference. Answer with the IPA transcription only, wrapped in slashes, with stress marks. No explanation.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("IPA transcription of the English word '%s':", word),
			},
		},
		Temperature: 0.0,
		MaxTokens:   30,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
