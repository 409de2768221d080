package story

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinSegmentsFloor is the lowest minimum-segment policy the gate accepts.
const MinSegmentsFloor = 2

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ImageAsset is one scene illustration, ordinal-linked to its segment. All
// images in this system are rendered for a 16:9 canvas.
type ImageAsset struct {
	Ordinal  int
	MIMEType string
	Data     []byte `validate:"min=1"`
}

// Segment is one narration unit paired with exactly one image.
type Segment struct {
	Ordinal int
	Text    string `validate:"required"`
	Image   ImageAsset
}

// Story is an ordered sequence of segments. Insertion order is narration
// order is visual order.
type Story struct {
	Prompt   string
	Segments []Segment `validate:"min=2,dive"`
}

// ValidationError reports why a generation attempt failed the structural
// gate. It is a retryable failure, not a terminal one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "story validation: " + e.Reason
}

// New assembles a Story from extracted narration texts and decoded images,
// applying the validation gate. Texts and images are paired by index; any
// structural defect rejects the whole attempt.
func New(prompt string, texts []string, images []ImageAsset, minSegments int) (Story, error) {
	var empty Story
	if minSegments < MinSegmentsFloor {
		minSegments = MinSegmentsFloor
	}
	if len(texts) < minSegments {
		return empty, &ValidationError{Reason: fmt.Sprintf("%d segments, need at least %d", len(texts), minSegments)}
	}
	if len(images) < len(texts) {
		return empty, &ValidationError{Reason: fmt.Sprintf("%d images for %d segments", len(images), len(texts))}
	}

	segments := make([]Segment, 0, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			return empty, &ValidationError{Reason: fmt.Sprintf("segment %d has empty text", i)}
		}
		image := images[i]
		if len(image.Data) == 0 {
			return empty, &ValidationError{Reason: fmt.Sprintf("segment %d is missing its image", i)}
		}
		image.Ordinal = i
		segments = append(segments, Segment{Ordinal: i, Text: text, Image: image})
	}

	st := Story{Prompt: prompt, Segments: segments}
	if err := structValidator.Struct(st); err != nil {
		return empty, &ValidationError{Reason: err.Error()}
	}
	return st, nil
}

// Texts returns the narration texts in ordinal order.
func (s Story) Texts() []string {
	texts := make([]string, len(s.Segments))
	for i, segment := range s.Segments {
		texts[i] = segment.Text
	}
	return texts
}

// Images returns the images in ordinal order.
func (s Story) Images() []ImageAsset {
	images := make([]ImageAsset, len(s.Segments))
	for i, segment := range s.Segments {
		images[i] = segment.Image
	}
	return images
}

// FullText joins all narration texts with blank lines.
func (s Story) FullText() string {
	return strings.Join(s.Texts(), "\n\n")
}
