package seo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storyforge/internal/logging"
	"storyforge/internal/services"
	"storyforge/internal/services/gemini"
	"storyforge/internal/story"
)

const maxTitleLength = 60

const systemPrompt = `You create SEO-optimized metadata for YouTube videos of animated children's stories.
Return ONLY a JSON object with:
1. 'title': a catchy, SEO-friendly title (max 60 chars)
2. 'description': engaging description (300-500 chars) with relevant keywords
3. 'tags': list of 10-15 relevant tags as strings
Format your response as valid JSON without explanation.`

// Bundle carries upload metadata. It is never empty: either the service's
// response or the deterministic fallback fills every field.
type Bundle struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	FromService bool     `json:"-"`
}

// Completer is the content-service call this stage needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Stage derives metadata bundles.
type Stage struct {
	completer Completer
	retry     services.RetryPolicy
	logger    *slog.Logger
	now       func() time.Time
}

// NewStage wires the metadata stage with its dependencies.
func NewStage(completer Completer, retry services.RetryPolicy, logger *slog.Logger) *Stage {
	return &Stage{
		completer: completer,
		retry:     retry,
		logger:    logging.NewComponentLogger(logger, "seo"),
		now:       time.Now,
	}
}

// WithClock overrides the timestamp source (useful for tests).
func (s *Stage) WithClock(now func() time.Time) *Stage {
	s.now = now
	return s
}

// Derive produces a metadata bundle for the story. The only error it can
// return is context cancellation; service failure selects the fallback.
func (s *Stage) Derive(ctx context.Context, st story.Story) (Bundle, error) {
	userPrompt := buildUserPrompt(st)

	var bundle Bundle
	err := s.retry.Do(ctx, "derive", func(ctx context.Context, attempt int) error {
		raw, err := s.completer.CompleteJSON(ctx, systemPrompt, userPrompt)
		if err != nil {
			return err
		}
		var parsed Bundle
		if err := gemini.DecodeJSON(raw, &parsed); err != nil {
			return services.Wrap(services.ErrValidation, "seo", "derive", "unparseable metadata payload", err)
		}
		if strings.TrimSpace(parsed.Title) == "" || strings.TrimSpace(parsed.Description) == "" || len(parsed.Tags) == 0 {
			return services.Wrap(services.ErrValidation, "seo", "derive", "metadata missing required fields", nil)
		}
		bundle = parsed
		bundle.FromService = true
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return Bundle{}, ctx.Err()
		}
		s.logger.Warn("metadata derivation exhausted, using deterministic fallback", logging.Error(err))
		return Fallback(st, s.now()), nil
	}

	bundle.Title = truncate(strings.TrimSpace(bundle.Title), maxTitleLength)
	s.logger.Info("metadata derived", logging.String("title", bundle.Title), logging.Int("tags", len(bundle.Tags)))
	return bundle, nil
}

func buildUserPrompt(st story.Story) string {
	preview := truncate(st.FullText(), 500)
	return fmt.Sprintf("STORY PREVIEW:\n%s\n\nPROMPT USED:\n%s", preview, st.Prompt)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
