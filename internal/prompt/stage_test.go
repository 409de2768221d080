package prompt_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storyforge/internal/prompt"
	"storyforge/internal/services"
)

type stubCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubCompleter) CompletePrompt(ctx context.Context, instruction string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func testPolicy(attempts int) services.RetryPolicy {
	return services.NewRetryPolicy("prompt", attempts, time.Millisecond, time.Millisecond, nil).
		WithSleeper(func(context.Context, time.Duration) error { return nil })
}

const wellFormed = "Generate a story about a fox named Juniper going on an adventure in a moonlit orchard in a highly detailed 3d cartoon animation style. Generate images in 16:9 aspect ratio suitable for a widescreen YouTube video."

func TestRefinePassesTopicThroughWithoutServiceCall(t *testing.T) {
	completer := &stubCompleter{responses: []string{wellFormed}}
	stage := prompt.NewStage(completer, testPolicy(3), nil)

	refined, err := stage.Refine(context.Background(), "  a goat named Pip  ")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined != "a goat named Pip" {
		t.Fatalf("expected topic passed through, got %q", refined)
	}
	if completer.calls != 0 {
		t.Fatalf("expected no service calls, got %d", completer.calls)
	}
}

func TestRefineGeneratesPromptWhenTopicEmpty(t *testing.T) {
	completer := &stubCompleter{responses: []string{wellFormed}}
	stage := prompt.NewStage(completer, testPolicy(3), nil)

	refined, err := stage.Refine(context.Background(), "")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined != wellFormed {
		t.Fatalf("unexpected prompt %q", refined)
	}
	if completer.calls != 1 {
		t.Fatalf("expected 1 call, got %d", completer.calls)
	}
}

func TestRefineRetriesThenSucceeds(t *testing.T) {
	completer := &stubCompleter{
		errs:      []error{errors.New("transient"), nil},
		responses: []string{"", wellFormed},
	}
	stage := prompt.NewStage(completer, testPolicy(3), nil)

	refined, err := stage.Refine(context.Background(), "")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if completer.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", completer.calls)
	}
	if refined != wellFormed {
		t.Fatalf("unexpected prompt %q", refined)
	}
}

func TestRefineFailsWhenRetriesExhausted(t *testing.T) {
	completer := &stubCompleter{errs: []error{errors.New("down"), errors.New("down")}}
	stage := prompt.NewStage(completer, testPolicy(2), nil)

	_, err := stage.Refine(context.Background(), "")
	if !errors.Is(err, prompt.ErrGenerationExhausted) {
		t.Fatalf("expected ErrGenerationExhausted, got %v", err)
	}
	if completer.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", completer.calls)
	}
}

func TestRefineSurfacesCancellation(t *testing.T) {
	completer := &stubCompleter{errs: []error{errors.New("down")}}
	stage := prompt.NewStage(completer, testPolicy(3), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := stage.Refine(ctx, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRepairAddsMissingClauses(t *testing.T) {
	repaired := prompt.Repair("a dragon exploring a crystal cave")
	for _, want := range []string{
		"Generate a story about",
		"highly detailed 3d cartoon animation style",
		"16:9",
	} {
		if !strings.Contains(repaired, want) {
			t.Fatalf("expected %q in %q", want, repaired)
		}
	}
}

func TestRepairTrimsLeadingChatter(t *testing.T) {
	raw := "Sure! Here is your prompt:\n\n" + wellFormed
	repaired := prompt.Repair(raw)
	if !strings.HasPrefix(repaired, "Generate a story about") {
		t.Fatalf("expected canonical opening, got %q", repaired)
	}
}
