package storygen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storyforge/internal/logging"
	"storyforge/internal/services"
	"storyforge/internal/services/gemini"
	"storyforge/internal/story"
)

// ErrGenerationExhausted reports that no attempt produced a gate-passing
// story within the retry budget.
var ErrGenerationExhausted = errors.New("story generation exhausted")

// Generator is the content-service call this stage needs.
type Generator interface {
	GenerateStory(ctx context.Context, prompt string) (gemini.StoryResult, error)
}

// Stage turns a prompt into a validated story.
type Stage struct {
	generator   Generator
	retry       services.RetryPolicy
	minSegments int
	logger      *slog.Logger
}

// NewStage wires the story stage with its dependencies.
func NewStage(generator Generator, retry services.RetryPolicy, minSegments int, logger *slog.Logger) *Stage {
	return &Stage{
		generator:   generator,
		retry:       retry,
		minSegments: minSegments,
		logger:      logging.NewComponentLogger(logger, "story"),
	}
}

// Generate invokes the content service under retry, applying the validation
// gate to every attempt. Only a structurally complete story is returned.
func (s *Stage) Generate(ctx context.Context, prompt string) (story.Story, error) {
	var accepted story.Story

	err := s.retry.Do(ctx, "generate", func(ctx context.Context, attempt int) error {
		result, err := s.generator.GenerateStory(ctx, prompt)
		if err != nil {
			return err
		}

		texts := story.ExtractSegments(result.Text)
		images := make([]story.ImageAsset, len(result.Images))
		for i, img := range result.Images {
			images[i] = story.ImageAsset{MIMEType: img.MIMEType, Data: img.Data}
		}

		candidate, err := story.New(prompt, texts, images, s.minSegments)
		if err != nil {
			s.logger.Warn("attempt failed validation gate",
				logging.Int("attempt", attempt),
				logging.Int("segments", len(texts)),
				logging.Int("images", len(images)),
				logging.Error(err))
			return err
		}

		accepted = candidate
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return story.Story{}, ctx.Err()
		}
		return story.Story{}, fmt.Errorf("%w: %w", ErrGenerationExhausted, err)
	}

	s.logger.Info("story accepted",
		logging.Int("segments", len(accepted.Segments)))
	return accepted, nil
}
