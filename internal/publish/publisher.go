// Package publish hands finished videos to the publishing target. The
// target is opaque: either an HTTP upload endpoint or a local directory
// watched by an external uploader.
package publish

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/snonux/wordreel/internal"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

// Publisher defines the publishing boundary.
type Publisher interface {
	// Publish hands the video at path to the sink. The caller keeps
	// ownership of the file and deletes it after the attempt.
	Publish(ctx context.Context, videoPath string, rec vocab.WordRecord) error

	// Name returns the publisher name
	Name() string
}

// Config holds publisher configuration.
type Config struct {
	UploadURL string        // HTTP sink; takes precedence when set
	OutputDir string        // directory sink
	Timeout   time.Duration // HTTP upload timeout
}

// NewPublisher creates a publisher from configuration.
func NewPublisher(cfg *Config) (Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("publish config required")
	}
	if cfg.UploadURL != "" {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		return &HTTPPublisher{
			url:    cfg.UploadURL,
			client: &http.Client{Timeout: timeout},
		}, nil
	}
	if cfg.OutputDir != "" {
		return &DirPublisher{dir: cfg.OutputDir}, nil
	}
	return nil, fmt.Errorf("either an upload URL or an output directory is required")
}

// HTTPPublisher uploads the video as a multipart form to the sink endpoint.
type HTTPPublisher struct {
	url    string
	client *http.Client
}

// Publish uploads the video file with its word as the title field.
func (p *HTTPPublisher) Publish(ctx context.Context, videoPath string, rec vocab.WordRecord) error {
	file, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		if err := writer.WriteField("title", rec.Word); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := writer.CreateFormFile("video", filepath.Base(videoPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("publish sink returned status %d", resp.StatusCode)
	}
	return nil
}

// Name returns the publisher name
func (p *HTTPPublisher) Name() string { return "http" }

// DirPublisher copies the video into a local directory, named after the
// word it teaches.
type DirPublisher struct {
	dir string
}

// Publish copies the video into the publish directory.
func (p *DirPublisher) Publish(ctx context.Context, videoPath string, rec vocab.WordRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("failed to create publish directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.mp4", internal.SanitizeFilename(rec.Word), time.Now().Format("20060102-150405"))
	dst := filepath.Join(p.dir, name)

	src, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create published file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, &contextReader{ctx: ctx, r: src}); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to copy video: %w", err)
	}
	return nil
}

// Name returns the publisher name
func (p *DirPublisher) Name() string { return "directory" }

// contextReader aborts a copy once its context is done, so the publish
// stage timeout also bounds the directory sink.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
