package config

import (
	"os"
	"strings"
)

// normalize expands paths, applies environment fallbacks, and backfills empty
// fields with defaults so validation sees a fully populated config.
func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(fallback(c.Paths.WorkspaceDir, defaultWorkspaceDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(fallback(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}

	if env := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); env != "" {
		c.Gemini.APIKey = env
	}
	c.Gemini.BaseURL = fallback(c.Gemini.BaseURL, defaultGeminiBaseURL)
	c.Gemini.PromptModel = fallback(c.Gemini.PromptModel, defaultPromptModel)
	c.Gemini.StoryModel = fallback(c.Gemini.StoryModel, defaultStoryModel)
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
	if c.Gemini.RequestsPerMinute <= 0 {
		c.Gemini.RequestsPerMinute = defaultRequestsPerMinute
	}

	c.Speech.Endpoint = fallback(c.Speech.Endpoint, defaultSpeechEndpoint)
	c.Speech.Voice = fallback(c.Speech.Voice, defaultSpeechVoice)
	if c.Speech.SampleRate <= 0 {
		c.Speech.SampleRate = defaultSampleRate
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}

	if c.Story.MinSegments <= 0 {
		c.Story.MinSegments = defaultMinSegments
	}
	c.Story.DefaultPrompt = fallback(c.Story.DefaultPrompt, DefaultPrompt)

	if c.Audio.SegmentGapMillis <= 0 {
		c.Audio.SegmentGapMillis = defaultSegmentGapMillis
	}

	if c.Video.Width <= 0 {
		c.Video.Width = defaultVideoWidth
	}
	if c.Video.Height <= 0 {
		c.Video.Height = defaultVideoHeight
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultVideoFPS
	}
	if c.Video.CrossfadeMillis <= 0 {
		c.Video.CrossfadeMillis = defaultCrossfadeMillis
	}
	if c.Video.ZoomFactor <= 1 {
		c.Video.ZoomFactor = defaultZoomFactor
	}
	c.Video.Bitrate = fallback(c.Video.Bitrate, defaultVideoBitrate)

	if c.Retry.PromptAttempts <= 0 {
		c.Retry.PromptAttempts = defaultPromptAttempts
	}
	if c.Retry.StoryAttempts <= 0 {
		c.Retry.StoryAttempts = defaultStoryAttempts
	}
	if c.Retry.MetadataAttempts <= 0 {
		c.Retry.MetadataAttempts = defaultMetadataAttempts
	}
	if c.Retry.SpeechAttempts <= 0 {
		c.Retry.SpeechAttempts = defaultSpeechAttempts
	}
	if c.Retry.BaseDelayMillis <= 0 {
		c.Retry.BaseDelayMillis = defaultBaseDelayMillis
	}
	if c.Retry.MaxDelayMillis <= 0 {
		c.Retry.MaxDelayMillis = defaultMaxDelayMillis
	}

	c.Logging.Format = strings.ToLower(fallback(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(fallback(c.Logging.Level, defaultLogLevel))

	return nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}
