// Package config loads the server configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CLIPPER_CONFIG is unset
const DefaultPath = "config/config.yaml"

// Publisher backends
const (
	PublisherLocal  = "local"
	PublisherGDrive = "gdrive"
)

// Transcription backends
const (
	BackendOpenAI  = "openai"
	BackendWhisper = "whisper"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port          int    `yaml:"port"`
		Host          string `yaml:"host"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	OpenAI struct {
		APIKey             string  `yaml:"api_key"`
		BaseURL            string  `yaml:"base_url"`
		TranscriptionModel string  `yaml:"transcription_model"`
		SegmentationModel  string  `yaml:"segmentation_model"`
		Temperature        float64 `yaml:"temperature"`
		TimeoutMinutes     int     `yaml:"timeout_minutes"`
	} `yaml:"openai"`

	Transcription struct {
		Backend string `yaml:"backend"`
	} `yaml:"transcription"`

	Whisper struct {
		Model    string `yaml:"model"`
		Language string `yaml:"language"`
	} `yaml:"whisper"`

	Media struct {
		YtDlpPath    string `yaml:"ytdlp_path"`
		FFmpegPath   string `yaml:"ffmpeg_path"`
		AudioCodec   string `yaml:"audio_codec"`
		AudioBitrate string `yaml:"audio_bitrate"`
		VideoCodec   string `yaml:"video_codec"`
		ClipAudio    string `yaml:"clip_audio_codec"`
	} `yaml:"media"`

	Workers struct {
		MaxConcurrent int `yaml:"max_concurrent"`
	} `yaml:"workers"`

	Sources struct {
		AcceptedPrefixes []string `yaml:"accepted_prefixes"`
	} `yaml:"sources"`

	Storage struct {
		TempDir   string `yaml:"temp_dir"`
		OutputDir string `yaml:"output_dir"`
		Database  string `yaml:"database"`
		Publisher string `yaml:"publisher"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`
}

// DefaultAcceptedPrefixes are the YouTube URL forms accepted for submission
var DefaultAcceptedPrefixes = []string{
	"https://www.youtube.com/",
	"https://youtube.com/",
	"https://m.youtube.com/",
	"https://youtu.be/",
}

// Default returns a configuration with every field set to its default
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads .env files, the YAML file at path (optional) and environment overrides.
// A missing YAML file is not an error.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PathFromEnv returns CLIPPER_CONFIG or DefaultPath
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv("CLIPPER_CONFIG")); p != "" {
		return p
	}
	return DefaultPath
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Server.Port = p
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.Server.PublicBaseURL = strings.TrimRight(c.Server.PublicBaseURL, "/")

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.OpenAI.SegmentationModel == "" {
		c.OpenAI.SegmentationModel = "gpt-4-turbo"
	}
	if c.OpenAI.Temperature == 0 {
		c.OpenAI.Temperature = 0.3
	}
	if c.OpenAI.TimeoutMinutes == 0 {
		c.OpenAI.TimeoutMinutes = 30
	}

	if c.Transcription.Backend == "" {
		c.Transcription.Backend = BackendOpenAI
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "small"
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}

	if c.Media.YtDlpPath == "" {
		c.Media.YtDlpPath = "yt-dlp"
	}
	if c.Media.FFmpegPath == "" {
		c.Media.FFmpegPath = "ffmpeg"
	}
	if c.Media.AudioCodec == "" {
		c.Media.AudioCodec = "libmp3lame"
	}
	if c.Media.AudioBitrate == "" {
		c.Media.AudioBitrate = "128k"
	}
	if c.Media.VideoCodec == "" {
		c.Media.VideoCodec = "libx264"
	}
	if c.Media.ClipAudio == "" {
		c.Media.ClipAudio = "aac"
	}

	if len(c.Sources.AcceptedPrefixes) == 0 {
		c.Sources.AcceptedPrefixes = append([]string(nil), DefaultAcceptedPrefixes...)
	}

	if c.Storage.TempDir == "" {
		c.Storage.TempDir = "temp"
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "outputs"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "clips.db"
	}
	if c.Storage.Publisher == "" {
		c.Storage.Publisher = PublisherLocal
	}

	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}

	if c.GoogleDrive.CredentialsFile == "" {
		c.GoogleDrive.CredentialsFile = "config/credentials.json"
	}
	if c.GoogleDrive.TokenFile == "" {
		c.GoogleDrive.TokenFile = "config/token.json"
	}
	if c.GoogleDrive.FolderName == "" {
		c.GoogleDrive.FolderName = "Clips"
	}
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Workers.MaxConcurrent < 0 {
		return fmt.Errorf("workers.max_concurrent must not be negative")
	}
	switch c.Storage.Publisher {
	case PublisherLocal, PublisherGDrive:
	default:
		return fmt.Errorf("unknown storage.publisher %q", c.Storage.Publisher)
	}
	switch c.Transcription.Backend {
	case BackendOpenAI, BackendWhisper:
	default:
		return fmt.Errorf("unknown transcription.backend %q", c.Transcription.Backend)
	}
	if c.Cleanup.IntervalMinutes < 0 || c.Cleanup.MaxAgeHours < 0 {
		return fmt.Errorf("cleanup intervals must not be negative")
	}
	for _, p := range c.Sources.AcceptedPrefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("sources.accepted_prefixes contains an empty prefix")
		}
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
