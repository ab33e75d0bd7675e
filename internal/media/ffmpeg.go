package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AudioTrackName is the file name of the extracted audio inside a job workspace
const AudioTrackName = "audio.mp3"

// FFmpegOptions holds the encoding settings for audio extraction and trimming
type FFmpegOptions struct {
	AudioCodec   string
	AudioBitrate string
	VideoCodec   string
	ClipAudio    string
}

// FFmpeg implements audio extraction and clip trimming
type FFmpeg struct {
	path   string
	opts   FFmpegOptions
	runner CommandRunner
}

// NewFFmpeg creates an ffmpeg wrapper. Empty options fall back to mp3 128k / h264+aac.
func NewFFmpeg(path string, opts FFmpegOptions, runner CommandRunner) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "libmp3lame"
	}
	if opts.AudioBitrate == "" {
		opts.AudioBitrate = "128k"
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "libx264"
	}
	if opts.ClipAudio == "" {
		opts.ClipAudio = "aac"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &FFmpeg{path: path, opts: opts, runner: runner}
}

// ExtractAudio writes the audio track of videoPath into dir and returns its path
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, dir string) (string, error) {
	outputPath := filepath.Join(dir, AudioTrackName)

	res, err := f.runner.Run(ctx, f.path, f.audioArgs(videoPath, outputPath)...)
	if err != nil {
		return "", commandError("ffmpeg", res, err)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("ffmpeg completed but audio output is missing: %w", err)
	}
	return outputPath, nil
}

// Trim cuts [start, end) seconds of videoPath into outputPath
func (f *FFmpeg) Trim(ctx context.Context, videoPath string, start, end int, outputPath string) error {
	if start < 0 || end <= start {
		return fmt.Errorf("invalid trim range %d-%d", start, end)
	}

	res, err := f.runner.Run(ctx, f.path, f.trimArgs(videoPath, start, end, outputPath)...)
	if err != nil {
		return commandError("ffmpeg", res, err)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("ffmpeg completed but clip is missing: %w", err)
	}
	return nil
}

func (f *FFmpeg) audioArgs(videoPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", f.opts.AudioCodec,
		"-b:a", f.opts.AudioBitrate,
		"-f", "mp3",
		outputPath,
	}
}

func (f *FFmpeg) trimArgs(videoPath string, start, end int, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", strconv.Itoa(start),
		"-to", strconv.Itoa(end),
		"-i", videoPath,
		"-c:v", f.opts.VideoCodec,
		"-c:a", f.opts.ClipAudio,
		outputPath,
	}
}
