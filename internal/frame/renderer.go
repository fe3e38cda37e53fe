// Package frame produces the captioned still image for a word record by
// invoking the external rendering engine. Layout and typography are the
// engine's business; this package only hands it structured word data and
// verifies that an output file came back.
package frame

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"codeberg.org/snonux/wordreel/internal/artifacts"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

var commandContext = exec.CommandContext

// Renderer defines the frame rendering boundary.
type Renderer interface {
	RenderStill(ctx context.Context, rec vocab.WordRecord) (string, error)
}

// Error wraps a render failure.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("frame render %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// payload is the word data handed to the engine, one flattened field per
// caption slot.
type payload struct {
	Word          string `json:"word"`
	Pronunciation string `json:"pronunciation"`
	Type          string `json:"type"`
	Meaning       string `json:"meaning"`
	Example1      string `json:"example1"`
	Example2      string `json:"example2"`
	Synonyms1     string `json:"synonyms1"`
	Synonyms2     string `json:"synonyms2"`
	Synonyms3     string `json:"synonyms3"`
	Synonyms4     string `json:"synonyms4"`
}

func buildPayload(rec vocab.WordRecord) payload {
	return payload{
		Word:          rec.Word,
		Pronunciation: rec.Pronunciation,
		Type:          rec.CanonicalType(),
		Meaning:       rec.Meaning,
		Example1:      rec.Example(0),
		Example2:      rec.Example(1),
		Synonyms1:     rec.Synonym(0),
		Synonyms2:     rec.Synonym(1),
		Synonyms3:     rec.Synonym(2),
		Synonyms4:     rec.Synonym(3),
	}
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default engine binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithComposition overrides the composition the engine renders.
func WithComposition(composition string) Option {
	return func(c *CLI) {
		if composition != "" {
			c.composition = composition
		}
	}
}

// CLI wraps the command-line rendering engine.
type CLI struct {
	binary      string
	composition string
	store       *artifacts.Store
}

// NewCLI constructs a renderer client using defaults.
func NewCLI(store *artifacts.Store, opts ...Option) *CLI {
	cli := &CLI{
		binary:      "wordreel-render",
		composition: "BackgroundVideo",
		store:       store,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// RenderStill invokes the engine and returns the path of the rendered
// image. The props file is removed before returning; the image belongs to
// the caller.
func (c *CLI) RenderStill(ctx context.Context, rec vocab.WordRecord) (string, error) {
	propsFile, err := c.writeProps(rec)
	if err != nil {
		return "", &Error{Op: "props", Err: err}
	}
	defer c.store.Remove(propsFile)

	outputFile := c.store.NewPath("png")

	args := []string{
		"still",
		"--composition", c.composition,
		"--props", propsFile,
		"--output", outputFile,
	}
	cmd := commandContext(ctx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		c.store.Remove(outputFile)
		return "", &Error{Op: "engine", Err: fmt.Errorf("%w\nOutput: %s", err, string(output))}
	}

	if _, err := os.Stat(outputFile); err != nil {
		return "", &Error{Op: "engine", Err: fmt.Errorf("engine reported success but output file is missing: %w", err)}
	}
	return outputFile, nil
}

func (c *CLI) writeProps(rec vocab.WordRecord) (string, error) {
	data, err := json.Marshal(buildPayload(rec))
	if err != nil {
		return "", err
	}
	propsFile := c.store.NewPath("json")
	if err := os.WriteFile(propsFile, data, 0644); err != nil {
		return "", err
	}
	return propsFile, nil
}
