package config

const (
	defaultWorkspaceDir      = "~/.local/share/storyforge/runs"
	defaultLogDir            = "~/.local/share/storyforge/logs"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultPromptModel       = "gemini-2.0-flash-thinking-exp-01-21"
	defaultStoryModel        = "gemini-2.0-flash-exp-image-generation"
	defaultGeminiTimeout     = 120
	defaultRequestsPerMinute = 10
	defaultSpeechEndpoint    = "http://127.0.0.1:8880/v1/audio/speech"
	defaultSpeechVoice       = "af_heart"
	defaultSampleRate        = 24000
	defaultSpeechTimeout     = 120
	defaultMinSegments       = 6
	defaultSegmentGapMillis  = 500
	defaultVideoWidth        = 1920
	defaultVideoHeight       = 1080
	defaultVideoFPS          = 30
	defaultCrossfadeMillis   = 250
	defaultZoomFactor        = 1.08
	defaultVideoBitrate      = "5M"
	defaultPromptAttempts    = 3
	defaultStoryAttempts     = 5
	defaultMetadataAttempts  = 2
	defaultSpeechAttempts    = 3
	defaultBaseDelayMillis   = 1000
	defaultMaxDelayMillis    = 60000
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
)

// DefaultPrompt seeds generation when the caller supplies no topic and the
// prompt service is unavailable.
const DefaultPrompt = "Generate a story about a white baby goat named Pip going on an " +
	"adventure in a farm in a highly detailed 3d cartoon animation style. For each " +
	"scene, generate a high-quality, photorealistic image in landscape orientation " +
	"suitable for a widescreen (16:9 aspect ratio) YouTube video. Ensure maximum " +
	"detail, vibrant colors, and professional lighting."

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Gemini: Gemini{
			BaseURL:           defaultGeminiBaseURL,
			PromptModel:       defaultPromptModel,
			StoryModel:        defaultStoryModel,
			TimeoutSeconds:    defaultGeminiTimeout,
			RequestsPerMinute: defaultRequestsPerMinute,
		},
		Speech: Speech{
			Endpoint:       defaultSpeechEndpoint,
			Voice:          defaultSpeechVoice,
			SampleRate:     defaultSampleRate,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Story: Story{
			MinSegments:   defaultMinSegments,
			DefaultPrompt: DefaultPrompt,
		},
		Audio: Audio{
			SegmentGapMillis: defaultSegmentGapMillis,
		},
		Video: Video{
			Width:           defaultVideoWidth,
			Height:          defaultVideoHeight,
			FPS:             defaultVideoFPS,
			CrossfadeMillis: defaultCrossfadeMillis,
			ZoomFactor:      defaultZoomFactor,
			Bitrate:         defaultVideoBitrate,
		},
		Retry: Retry{
			PromptAttempts:   defaultPromptAttempts,
			StoryAttempts:    defaultStoryAttempts,
			MetadataAttempts: defaultMetadataAttempts,
			SpeechAttempts:   defaultSpeechAttempts,
			BaseDelayMillis:  defaultBaseDelayMillis,
			MaxDelayMillis:   defaultMaxDelayMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
