package narration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/wordreel/internal/artifacts"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

// synthesisRequest is the JSON envelope the external synthesis service expects.
type synthesisRequest struct {
	Content string `json:"content"`
	Locale  string `json:"locale"`
	IP      string `json:"ip"`
}

// HTTPProvider implements Provider against the external HTTP synthesis
// service. The response body is base64-encoded MP3 bytes.
type HTTPProvider struct {
	config  *Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	store   *artifacts.Store
}

// NewHTTPProvider creates a new HTTP narration provider
func NewHTTPProvider(config *Config, store *artifacts.Store) *HTTPProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "narration",
		Interval: 5 * time.Minute,
		Timeout:  2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &HTTPProvider{
		config:  config,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		store:   store,
	}
}

// Synthesize submits the voice script and writes the decoded audio to a
// freshly named artifact file.
func (p *HTTPProvider) Synthesize(ctx context.Context, rec vocab.WordRecord) (string, error) {
	audio, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchAudio(ctx, rec)
	})
	if err != nil {
		return "", &Error{Op: "synthesize", Err: err}
	}

	outputFile := p.store.NewPath("mp3")
	if err := os.WriteFile(outputFile, audio.([]byte), 0644); err != nil {
		return "", &Error{Op: "write", Err: err}
	}
	return outputFile, nil
}

func (p *HTTPProvider) fetchAudio(ctx context.Context, rec vocab.WordRecord) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Content: BuildVoiceScript(rec, p.config.Voice),
		Locale:  p.config.Locale,
		IP:      "127.0.0.1",
	})
	if err != nil {
		return nil, err
	}

	url := p.config.ServiceURL
	if p.config.ServiceCode != "" {
		url += "?code=" + p.config.ServiceCode
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis service returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	audio, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio data received from synthesis service")
	}
	return audio, nil
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return "http"
}
