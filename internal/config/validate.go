package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config field %s failed %q validation", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/storyforge/config.toml"
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'storyforge config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.SampleRate < 8000 || c.Speech.SampleRate > 48000 {
		return errors.New("speech.sample_rate must be between 8000 and 48000")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return errors.New("video.width and video.height must be even")
	}
	if c.Video.FPS < 1 || c.Video.FPS > 120 {
		return errors.New("video.fps must be between 1 and 120")
	}
	if c.Video.ZoomFactor <= 1 || c.Video.ZoomFactor > 2 {
		return errors.New("video.zoom_factor must be greater than 1 and at most 2")
	}
	// Transitions overlap adjacent image windows; a fade longer than half the
	// inter-segment gap would eat into narration.
	if c.Video.CrossfadeMillis > c.Audio.SegmentGapMillis/2 {
		return fmt.Errorf("video.crossfade_ms (%d) must not exceed half of audio.segment_gap_ms (%d)", c.Video.CrossfadeMillis, c.Audio.SegmentGapMillis)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format must be one of console, json, auto (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
