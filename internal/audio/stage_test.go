package audio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyforge/internal/audio"
	"storyforge/internal/services"
	"storyforge/internal/services/speech"
	"storyforge/internal/story"
)

type stubSynth struct {
	clipSeconds float64
	sampleRate  int
	failFor     map[string]int // text -> failures before success
	calls       int
}

func (s *stubSynth) Synthesize(ctx context.Context, text string) (speech.Clip, error) {
	s.calls++
	if s.failFor != nil && s.failFor[text] > 0 {
		s.failFor[text]--
		return speech.Clip{}, errors.New("synth busy")
	}
	n := int(float64(s.sampleRate) * s.clipSeconds)
	return speech.Clip{SampleRate: s.sampleRate, Samples: make([]int16, n)}, nil
}

func testPolicy(attempts int) services.RetryPolicy {
	return services.NewRetryPolicy("audio", attempts, time.Millisecond, time.Millisecond, nil).
		WithSleeper(func(context.Context, time.Duration) error { return nil })
}

func testStory(t *testing.T, n int) story.Story {
	t.Helper()
	texts := make([]string, n)
	images := make([]story.ImageAsset, n)
	for i := range texts {
		texts[i] = "Segment text number " + string(rune('a'+i)) + " with plenty of words"
		images[i] = story.ImageAsset{MIMEType: "image/png", Data: []byte{byte(i + 1)}}
	}
	st, err := story.New("p", texts, images, 2)
	if err != nil {
		t.Fatalf("build story: %v", err)
	}
	return st
}

func TestSynthesizeBuildsTimelineWithGaps(t *testing.T) {
	synth := &stubSynth{clipSeconds: 2, sampleRate: 24000}
	stage := audio.NewStage(synth, testPolicy(3), 500*time.Millisecond, nil)

	timeline, err := stage.Synthesize(context.Background(), testStory(t, 3))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	// 3 clips of 2s plus 2 gaps of 0.5s.
	want := 7 * time.Second
	if timeline.TotalDuration() != want {
		t.Fatalf("total duration %v, want %v", timeline.TotalDuration(), want)
	}
	if len(timeline.Offsets) != 3 {
		t.Fatalf("expected 3 offsets, got %d", len(timeline.Offsets))
	}
}

func TestOffsetsMonotoneAndFinalEndMatchesSum(t *testing.T) {
	synth := &stubSynth{clipSeconds: 1.5, sampleRate: 24000}
	stage := audio.NewStage(synth, testPolicy(3), 500*time.Millisecond, nil)

	timeline, err := stage.Synthesize(context.Background(), testStory(t, 4))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	prevEnd := time.Duration(-1)
	for i, window := range timeline.Offsets {
		if window.Ordinal != i {
			t.Fatalf("offset %d has ordinal %d", i, window.Ordinal)
		}
		if window.Start <= prevEnd && i > 0 {
			t.Fatalf("offsets not monotonically increasing at %d", i)
		}
		if window.End <= window.Start {
			t.Fatalf("empty window at %d", i)
		}
		prevEnd = window.End
	}

	// Final end time = sum(segment durations) + (N-1) gaps.
	var sum time.Duration
	for i := range timeline.Offsets {
		sum += timeline.SegmentDuration(i)
	}
	sum += time.Duration(len(timeline.Offsets)-1) * timeline.Gap
	last := timeline.Offsets[len(timeline.Offsets)-1]
	if last.End != sum {
		t.Fatalf("offset arithmetic inconsistent: last end %v, sum %v", last.End, sum)
	}
	if timeline.TotalDuration() != last.End {
		t.Fatalf("track length %v should equal final segment end %v", timeline.TotalDuration(), last.End)
	}
}

func TestPerSegmentRetryThenSuccess(t *testing.T) {
	st := testStory(t, 3)
	synth := &stubSynth{
		clipSeconds: 1,
		sampleRate:  24000,
		failFor:     map[string]int{st.Segments[1].Text: 2},
	}
	stage := audio.NewStage(synth, testPolicy(3), 500*time.Millisecond, nil)

	timeline, err := stage.Synthesize(context.Background(), st)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if synth.calls != 5 {
		t.Fatalf("expected 5 synth calls, got %d", synth.calls)
	}
	if len(timeline.Offsets) != 3 {
		t.Fatalf("expected complete timeline, got %d windows", len(timeline.Offsets))
	}
}

func TestSegmentExhaustionFailsWholeStage(t *testing.T) {
	st := testStory(t, 3)
	synth := &stubSynth{
		clipSeconds: 1,
		sampleRate:  24000,
		failFor:     map[string]int{st.Segments[2].Text: 99},
	}
	stage := audio.NewStage(synth, testPolicy(2), 500*time.Millisecond, nil)

	_, err := stage.Synthesize(context.Background(), st)
	if !errors.Is(err, audio.ErrSynthesisExhausted) {
		t.Fatalf("expected ErrSynthesisExhausted, got %v", err)
	}
	if !services.IsExhausted(err) {
		t.Fatal("expected exhaustion details preserved")
	}
}

func TestNoTrailingGapAfterFinalSegment(t *testing.T) {
	synth := &stubSynth{clipSeconds: 2, sampleRate: 24000}
	stage := audio.NewStage(synth, testPolicy(1), 500*time.Millisecond, nil)

	timeline, err := stage.Synthesize(context.Background(), testStory(t, 2))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	last := timeline.Offsets[len(timeline.Offsets)-1]
	if timeline.TotalDuration() != last.End {
		t.Fatalf("trailing samples after final segment: total %v, last end %v", timeline.TotalDuration(), last.End)
	}
}

func TestEmptyStoryRejected(t *testing.T) {
	synth := &stubSynth{clipSeconds: 1, sampleRate: 24000}
	stage := audio.NewStage(synth, testPolicy(1), 0, nil)
	if _, err := stage.Synthesize(context.Background(), story.Story{}); err == nil {
		t.Fatal("expected error for empty story")
	}
}
