package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalPublisher publishes clips by copying them under a directory that the
// HTTP server exposes at /files.
type LocalPublisher struct {
	outputDir string
	baseURL   string
}

// NewLocalPublisher creates a publisher writing to outputDir and linking via baseURL
func NewLocalPublisher(outputDir, baseURL string) *LocalPublisher {
	return &LocalPublisher{
		outputDir: outputDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// OutputDir is the directory served as /files
func (lp *LocalPublisher) OutputDir() string {
	return lp.outputDir
}

// Publish copies localPath to <outputDir>/<jobID>/ and returns its public URL
func (lp *LocalPublisher) Publish(ctx context.Context, jobID, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(localPath)
	dir := filepath.Join(lp.outputDir, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	dst := filepath.Join(dir, name)
	if err := copyFile(localPath, dst); err != nil {
		os.Remove(dst)
		return "", err
	}

	return fmt.Sprintf("%s/files/%s/%s", lp.baseURL, url.PathEscape(jobID), url.PathEscape(name)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open clip: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create published clip: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy clip: %w", err)
	}
	return out.Close()
}
