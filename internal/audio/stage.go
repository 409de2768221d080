package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storyforge/internal/logging"
	"storyforge/internal/services"
	"storyforge/internal/services/speech"
	"storyforge/internal/story"
)

// ErrSynthesisExhausted reports that some segment's synthesis permanently
// failed, so no timeline could be produced.
var ErrSynthesisExhausted = errors.New("audio synthesis exhausted")

// Synthesizer is the speech-engine call this stage needs.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (speech.Clip, error)
}

// Stage synthesizes narration timelines.
type Stage struct {
	synth  Synthesizer
	retry  services.RetryPolicy
	gap    time.Duration
	logger *slog.Logger
}

// NewStage wires the audio stage with its dependencies. gap is the fixed
// silence inserted between consecutive segments.
func NewStage(synth Synthesizer, retry services.RetryPolicy, gap time.Duration, logger *slog.Logger) *Stage {
	if gap < 0 {
		gap = 0
	}
	return &Stage{
		synth:  synth,
		retry:  retry,
		gap:    gap,
		logger: logging.NewComponentLogger(logger, "audio"),
	}
}

// Synthesize produces the narration timeline for the story: one clip per
// segment in ordinal order, gap silence between consecutive segments, and
// the cumulative-offset table computed after concatenation.
func (s *Stage) Synthesize(ctx context.Context, st story.Story) (Timeline, error) {
	var empty Timeline
	if len(st.Segments) == 0 {
		return empty, services.Wrap(services.ErrValidation, "audio", "synthesize", "story has no segments", nil)
	}

	clips := make([][]int16, 0, len(st.Segments))
	sampleRate := 0
	for _, segment := range st.Segments {
		var clip speech.Clip
		op := fmt.Sprintf("segment %d", segment.Ordinal)
		err := s.retry.Do(ctx, op, func(ctx context.Context, attempt int) error {
			c, err := s.synth.Synthesize(ctx, segment.Text)
			if err != nil {
				return err
			}
			clip = c
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return empty, ctx.Err()
			}
			return empty, fmt.Errorf("%w: %w", ErrSynthesisExhausted, err)
		}

		if sampleRate == 0 {
			sampleRate = clip.SampleRate
		} else if clip.SampleRate != sampleRate {
			return empty, services.Wrap(services.ErrExternalTool, "audio", op,
				fmt.Sprintf("sample rate %d differs from track rate %d", clip.SampleRate, sampleRate), nil)
		}
		clips = append(clips, clip.Samples)
		s.logger.Debug("segment synthesized",
			logging.Int("ordinal", segment.Ordinal),
			logging.Duration("duration", clip.Duration()))
	}

	timeline := buildTimeline(sampleRate, clips, s.gap)
	s.logger.Info("timeline assembled",
		logging.Int("segments", len(clips)),
		logging.Duration("gap", s.gap),
		logging.Duration("total", timeline.TotalDuration()))
	return timeline, nil
}
