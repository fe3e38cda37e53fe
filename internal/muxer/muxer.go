// Package muxer combines a still image and a narration track into the
// final vertical video using ffmpeg: the image is looped for the duration
// of the audio, scaled to 1080x1920, and the output is trimmed to the
// shorter stream.
package muxer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Muxer defines the encoding boundary.
type Muxer interface {
	Mux(ctx context.Context, imagePath, audioPath, outputPath string) (string, error)
}

// Error wraps an encoder failure together with its captured diagnostics.
type Error struct {
	Err    error
	Output string
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("mux failed: %v", e.Err)
	}
	return fmt.Sprintf("mux failed: %v\nOutput: %s", e.Err, e.Output)
}

func (e *Error) Unwrap() error { return e.Err }

// FFmpeg invokes the ffmpeg binary with a fixed filter graph.
type FFmpeg struct {
	binary string
	logger *slog.Logger
}

// Option configures the FFmpeg muxer.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// NewFFmpeg constructs an FFmpeg muxer.
func NewFFmpeg(logger *slog.Logger, opts ...Option) *FFmpeg {
	if logger == nil {
		logger = slog.Default()
	}
	f := &FFmpeg{binary: "ffmpeg", logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsAvailable checks that the ffmpeg binary can be executed.
func (f *FFmpeg) IsAvailable() error {
	if err := exec.Command(f.binary, "-version").Run(); err != nil {
		return fmt.Errorf("%s is not installed or not in PATH: %w", f.binary, err)
	}
	return nil
}

// Mux encodes image + audio into outputPath. On success both input files
// are deleted; deletion failures are logged, not escalated. On failure the
// inputs are left in place for the caller's cleanup.
func (f *FFmpeg) Mux(ctx context.Context, imagePath, audioPath, outputPath string) (string, error) {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-vf", "scale=1080:1920",
		outputPath,
	}

	cmd := commandContext(ctx, f.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", &Error{Err: err, Output: tail(string(output), 2000)}
	}

	for _, input := range []string{imagePath, audioPath} {
		if err := os.Remove(input); err != nil && !os.IsNotExist(err) {
			f.logger.Warn("failed to delete mux input", slog.String("path", input), slog.String("error", err.Error()))
		}
	}

	return outputPath, nil
}

// tail returns the last n bytes of s, trimmed to whole lines where possible.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	if i := strings.IndexByte(s, '\n'); i >= 0 && i+1 < len(s) {
		s = s[i+1:]
	}
	return s
}

var _ Muxer = (*FFmpeg)(nil)
