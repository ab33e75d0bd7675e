package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
)

// SourceVideoName is the file name of the downloaded video inside a job workspace
const SourceVideoName = "source.mp4"

// YtDlpFetcher downloads source videos with yt-dlp
type YtDlpFetcher struct {
	path   string
	runner CommandRunner
}

// NewYtDlpFetcher creates a fetcher using the given yt-dlp binary
func NewYtDlpFetcher(path string, runner CommandRunner) *YtDlpFetcher {
	if path == "" {
		path = "yt-dlp"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &YtDlpFetcher{path: path, runner: runner}
}

// Fetch downloads url as a merged audio+video mp4 into dir and returns its path
func (f *YtDlpFetcher) Fetch(ctx context.Context, url, dir string) (string, error) {
	outputPath := filepath.Join(dir, SourceVideoName)
	logger.Debugf("Using yt-dlp to download: %s", url)

	args := buildYtDlpArgs(url, outputPath)
	res, err := f.runner.Run(ctx, f.path, args...)
	if err != nil {
		return "", commandError("yt-dlp", res, err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("yt-dlp completed but %s is missing: %w", outputPath, err)
	}
	return outputPath, nil
}

func buildYtDlpArgs(url, outputPath string) []string {
	return []string{
		"--no-playlist",
		"--no-progress",
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", outputPath,
		url,
	}
}
