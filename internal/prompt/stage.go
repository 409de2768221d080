package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"storyforge/internal/logging"
	"storyforge/internal/services"
)

// ErrGenerationExhausted reports that no retry attempt produced a usable
// prompt from the content service.
var ErrGenerationExhausted = errors.New("prompt generation exhausted")

const styleClause = "highly detailed 3d cartoon animation style"

const aspectClause = "Generate images in 16:9 aspect ratio suitable for a widescreen YouTube video."

const systemMessage = `As a creative writing expert for children's stories, your task is to generate a detailed story prompt for our creative AI.

Please structure your response in this specific format:
Generate a story about [CHARACTER] going on an adventure in [SETTING] in a highly detailed 3d cartoon animation style. Make sure each scene has maximum detail, vibrant colors, and professional lighting. The story should be positive, uplifting, and perfect for a YouTube children's channel. Generate images in 16:9 aspect ratio suitable for a widescreen YouTube video.

IMPORTANT RULES:
1. Always include "in a highly detailed 3d cartoon animation style" in the prompt
2. Always include "Generate images in 16:9 aspect ratio suitable for a widescreen YouTube video"
3. Make the character and setting family-friendly, colorful and appealing to young children
4. Your response should ONLY contain the prompt text in the format above, without any additional explanations or text
5. Create a unique character and fantasy setting each time
6. No RPG/video game settings or popular cartoon characters
7. Include specific visual style details like "vibrant colors" and "professional lighting"`

var promptShape = regexp.MustCompile(`Generate a story about (.*?) going on an adventure in (.*?) in a highly detailed 3d cartoon animation style`)

// Completer is the single content-service call this stage needs.
type Completer interface {
	CompletePrompt(ctx context.Context, instruction string) (string, error)
}

// Stage obtains story prompts.
type Stage struct {
	completer Completer
	retry     services.RetryPolicy
	logger    *slog.Logger
}

// NewStage wires the prompt stage with its dependencies.
func NewStage(completer Completer, retry services.RetryPolicy, logger *slog.Logger) *Stage {
	return &Stage{
		completer: completer,
		retry:     retry,
		logger:    logging.NewComponentLogger(logger, "prompt"),
	}
}

// Refine obtains the prompt that drives story generation. A non-empty topic
// is the prompt: it passes through untouched and the content service is never
// called. With no topic the stage asks the service to invent one; exhausting
// the retry budget fails the run with ErrGenerationExhausted.
func (s *Stage) Refine(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic != "" {
		s.logger.Info("using caller-supplied prompt", logging.Int("length", len(topic)))
		return topic, nil
	}

	var generated string
	err := s.retry.Do(ctx, "refine", func(ctx context.Context, attempt int) error {
		text, err := s.completer.CompletePrompt(ctx, systemMessage)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return services.Wrap(services.ErrTransient, "prompt", "refine", "empty completion", nil)
		}
		generated = text
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", ErrGenerationExhausted, err)
	}

	refined := Repair(generated)
	s.logger.Info("prompt generated", logging.Int("length", len(refined)))
	return refined, nil
}

// Repair normalizes a generated prompt so the clauses the story model depends
// on are always present: it trims the response down to the canonical opening
// and appends the style and aspect-ratio requirements when missing.
func Repair(text string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "```", ""))

	if promptShape.MatchString(clean) {
		if idx := strings.Index(clean, "Generate a story about"); idx >= 0 {
			clean = clean[idx:]
		}
		if !strings.Contains(clean, "16:9") {
			clean += " " + aspectClause
		}
		return clean
	}

	if !strings.Contains(clean, "Generate a story about") {
		clean = "Generate a story about " + clean
	}
	if !strings.Contains(clean, styleClause) {
		clean += " in a " + styleClause + "."
	}
	if !strings.Contains(clean, "16:9") {
		clean += " " + aspectClause
	}
	return clean
}
