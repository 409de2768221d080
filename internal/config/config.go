package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains workspace and log directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
}

// Gemini contains connection settings for the generative content service.
type Gemini struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	PromptModel       string `toml:"prompt_model"`
	StoryModel        string `toml:"story_model"`
	TimeoutSeconds    int    `toml:"timeout_seconds" validate:"omitempty,min=1,max=3600"`
	RequestsPerMinute int    `toml:"requests_per_minute" validate:"omitempty,min=1"`
}

// Speech contains connection settings for the speech synthesis service.
type Speech struct {
	Endpoint       string `toml:"endpoint" validate:"omitempty,url"`
	Voice          string `toml:"voice"`
	SampleRate     int    `toml:"sample_rate" validate:"omitempty,min=8000,max=48000"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"omitempty,min=1,max=3600"`
}

// Story contains story shape policy.
type Story struct {
	MinSegments   int    `toml:"min_segments" validate:"omitempty,min=2"`
	DefaultPrompt string `toml:"default_prompt"`
}

// Audio contains audio timeline settings.
type Audio struct {
	SegmentGapMillis int `toml:"segment_gap_ms" validate:"omitempty,min=0,max=5000"`
}

// Video contains render parameters for the assembled video.
type Video struct {
	Width           int     `toml:"width" validate:"omitempty,min=16"`
	Height          int     `toml:"height" validate:"omitempty,min=16"`
	FPS             int     `toml:"fps" validate:"omitempty,min=1,max=120"`
	CrossfadeMillis int     `toml:"crossfade_ms" validate:"omitempty,min=0,max=5000"`
	ZoomFactor      float64 `toml:"zoom_factor" validate:"omitempty,gt=1,lte=2"`
	Bitrate         string  `toml:"bitrate"`
}

// Retry contains per-stage attempt budgets and the shared backoff schedule.
type Retry struct {
	PromptAttempts   int `toml:"prompt_attempts" validate:"omitempty,min=1"`
	StoryAttempts    int `toml:"story_attempts" validate:"omitempty,min=1"`
	MetadataAttempts int `toml:"metadata_attempts" validate:"omitempty,min=1"`
	SpeechAttempts   int `toml:"speech_attempts" validate:"omitempty,min=1"`
	BaseDelayMillis  int `toml:"base_delay_ms" validate:"omitempty,min=0"`
	MaxDelayMillis   int `toml:"max_delay_ms" validate:"omitempty,min=0"`
}

// Drive contains settings for the Google Drive upload collaborator.
// Credentials come from the environment (DRIVE_CLIENT_ID, DRIVE_CLIENT_SECRET,
// DRIVE_REFRESH_TOKEN); only routing lives in the config file.
type Drive struct {
	Enabled  bool   `toml:"enabled"`
	FolderID string `toml:"folder_id"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for storyforge.
//
// Configuration sections by subsystem:
//   - Paths: run workspace and log directories
//   - Gemini: generative content service connection and models
//   - Speech: speech synthesis service connection and voice
//   - Story: story shape policy (minimum segments, default prompt)
//   - Audio: inter-segment silence gap
//   - Video: resolution, frame rate, transition and motion parameters
//   - Retry: per-stage attempt budgets and backoff schedule
//   - Drive: Google Drive upload routing
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Gemini  Gemini  `toml:"gemini"`
	Speech  Speech  `toml:"speech"`
	Story   Story   `toml:"story"`
	Audio   Audio   `toml:"audio"`
	Video   Video   `toml:"video"`
	Retry   Retry   `toml:"retry"`
	Drive   Drive   `toml:"drive"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storyforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for video assembly.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
