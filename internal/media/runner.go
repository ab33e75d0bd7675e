// Package media wraps yt-dlp and ffmpeg as the fetch, audio-extraction and trim collaborators.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts process execution so tests can fake yt-dlp and ffmpeg
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// CommandResult captures the output of one external command
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExecRunner runs commands via os/exec
type ExecRunner struct{}

// Run executes one command and captures stdout/stderr and exit code
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// commandError formats a failed command with the tail of its stderr
func commandError(name string, res CommandResult, err error) error {
	tail := strings.TrimSpace(res.Stderr)
	if len(tail) > 500 {
		tail = tail[len(tail)-500:]
	}
	if tail == "" {
		return fmt.Errorf("%s failed (exit %d): %w", name, res.ExitCode, err)
	}
	return fmt.Errorf("%s failed (exit %d): %w\nOutput: %s", name, res.ExitCode, err, tail)
}
