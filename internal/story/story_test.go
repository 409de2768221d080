package story_test

import (
	"errors"
	"strings"
	"testing"

	"storyforge/internal/story"
)

func pngStub() []byte { return []byte{0x89, 'P', 'N', 'G'} }

func makeImages(n int) []story.ImageAsset {
	images := make([]story.ImageAsset, n)
	for i := range images {
		images[i] = story.ImageAsset{MIMEType: "image/png", Data: pngStub()}
	}
	return images
}

func makeTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = "Pip the goat trotted happily along"
	}
	return texts
}

func TestNewAssignsContiguousOrdinals(t *testing.T) {
	s, err := story.New("a goat story", makeTexts(3), makeImages(3), 2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if len(s.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(s.Segments))
	}
	for i, segment := range s.Segments {
		if segment.Ordinal != i {
			t.Fatalf("segment %d has ordinal %d", i, segment.Ordinal)
		}
		if segment.Image.Ordinal != i {
			t.Fatalf("image %d has ordinal %d", i, segment.Image.Ordinal)
		}
	}
}

func TestNewRejectsTooFewSegments(t *testing.T) {
	_, err := story.New("p", makeTexts(2), makeImages(2), 6)
	var verr *story.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Reason, "at least 6") {
		t.Fatalf("unexpected reason %q", verr.Reason)
	}
}

func TestNewRejectsMissingImages(t *testing.T) {
	_, err := story.New("p", makeTexts(4), makeImages(3), 2)
	var verr *story.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNewRejectsEmptyText(t *testing.T) {
	texts := makeTexts(3)
	texts[1] = "   "
	_, err := story.New("p", texts, makeImages(3), 2)
	var verr *story.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Reason, "segment 1") {
		t.Fatalf("unexpected reason %q", verr.Reason)
	}
}

func TestNewRejectsEmptyImageData(t *testing.T) {
	images := makeImages(3)
	images[2].Data = nil
	_, err := story.New("p", makeTexts(3), images, 2)
	var verr *story.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMinSegmentsFloorApplies(t *testing.T) {
	if _, err := story.New("p", makeTexts(1), makeImages(1), 0); err == nil {
		t.Fatal("expected single-segment story rejected even with zero minimum")
	}
	if _, err := story.New("p", makeTexts(2), makeImages(2), 0); err != nil {
		t.Fatalf("two segments should satisfy the floor: %v", err)
	}
}

func TestFullTextJoinsInOrder(t *testing.T) {
	texts := []string{
		"Pip woke up at dawn on the farm",
		"Pip found a shiny red apple there",
	}
	s, err := story.New("p", texts, makeImages(2), 2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	want := texts[0] + "\n\n" + texts[1]
	if s.FullText() != want {
		t.Fatalf("unexpected full text %q", s.FullText())
	}
}
