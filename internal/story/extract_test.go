package story_test

import (
	"strings"
	"testing"

	"storyforge/internal/story"
)

func TestExtractSegmentsSplitsOnSegmentMarkers(t *testing.T) {
	raw := "Segment 1: Pip the goat woke up early on the farm.\n" +
		"Segment 2: Pip wandered past the red barn toward the meadow.\n" +
		"Segment 3: By sunset Pip was happily chewing sweet clover."

	segments := story.ExtractSegments(raw)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %v", len(segments), segments)
	}
	if !strings.HasPrefix(segments[0], "Pip the goat woke up") {
		t.Fatalf("unexpected first segment %q", segments[0])
	}
	for _, s := range segments {
		if strings.Contains(s, "Segment") {
			t.Fatalf("marker leaked into segment %q", s)
		}
	}
}

func TestExtractSegmentsFallsBackToParagraphs(t *testing.T) {
	raw := "Pip the goat woke up early on the farm.\n\n" +
		"Pip wandered past the red barn toward the meadow."

	segments := story.ExtractSegments(raw)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %v", len(segments), segments)
	}
}

func TestExtractSegmentsDropsNonStoryContent(t *testing.T) {
	raw := "Segment 1: Pip the goat woke up early on the farm.\n" +
		"Segment 2: Note: imagery rendered in widescreen cartoon style here.\n" +
		"Segment 3: Pip wandered past the red barn toward the meadow.\n" +
		"Segment 4: The end.\n" +
		"Segment 5: By sunset Pip was happily chewing sweet clover."

	segments := story.ExtractSegments(raw)
	if len(segments) != 3 {
		t.Fatalf("expected 3 story segments, got %d: %v", len(segments), segments)
	}
	for _, s := range segments {
		if strings.HasPrefix(s, "Note:") || s == "The end." {
			t.Fatalf("non-story content kept: %q", s)
		}
	}
}

func TestExtractSegmentsStripsBracketNotation(t *testing.T) {
	raw := "Segment 1: [Image 1: a farm at dawn] Pip the goat woke up early today.\n" +
		"Segment 2: Pip wandered [cheerful music] past the red barn happily.\n" +
		"Segment 3: By sunset Pip was happily chewing sweet clover."

	segments := story.ExtractSegments(raw)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %v", len(segments), segments)
	}
	for _, s := range segments {
		if strings.Contains(s, "[") || strings.Contains(s, "]") {
			t.Fatalf("bracket notation kept in %q", s)
		}
	}
}

func TestExtractSegmentsEmptyInput(t *testing.T) {
	if got := story.ExtractSegments("   \n  "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}
