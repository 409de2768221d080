package story

import (
	"regexp"
	"strings"
)

// Marker shapes models use to delimit scenes, tried in order. A split that
// yields at least three parts is trusted; otherwise the next pattern runs.
var segmentPatterns = []*regexp.Regexp{
	// "Segment 1:", "SCENE 3 - The Barn"
	regexp.MustCompile(`(?:Segment|SEGMENT|Scene|SCENE)\s+\d+(?:\s*[-:][^a-zA-Z0-9]*\s*)?`),
	// "1.", "2)", "[3]" at line starts
	regexp.MustCompile(`(?:^|\n)\s*(?:\d+[.)\]]|\[\d+\])\s+`),
	// "[Image 1: A forest scene]"
	regexp.MustCompile(`\[(?:Image|IMG|Picture|PIC)\s*\d+[^\]]*\]`),
}

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	inlineImageRef = regexp.MustCompile(`\[(?:Image|IMG|Picture|PIC)\s*\d+[^\]]*\]`)
	bracketed      = regexp.MustCompile(`\[[^\]]*\]`)
	boldMarkup     = regexp.MustCompile(`\*\*([^*]*)\*\*`)
)

// ExtractSegments cleans raw model output into narration units: it splits on
// segment markers (falling back to paragraph breaks), drops non-story chatter,
// and strips markdown and bracket notation.
func ExtractSegments(raw string) []string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil
	}

	var parts []string
	for _, pattern := range segmentPatterns {
		candidates := trimNonEmpty(pattern.Split(cleaned, -1))
		if len(candidates) >= 3 {
			parts = candidates
			break
		}
	}
	if parts == nil {
		parts = trimNonEmpty(paragraphSplit.Split(cleaned, -1))
	}

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if !looksLikeStoryText(part) {
			continue
		}
		clean := boldMarkup.ReplaceAllString(part, "$1")
		clean = inlineImageRef.ReplaceAllString(clean, "")
		clean = bracketed.ReplaceAllString(clean, "")
		clean = strings.Join(strings.Fields(clean), " ")
		if clean != "" {
			segments = append(segments, clean)
		}
	}
	return segments
}

func looksLikeStoryText(segment string) bool {
	if len(strings.Fields(segment)) < 5 {
		return false
	}
	if strings.HasPrefix(segment, "Image generation:") || strings.HasPrefix(segment, "Note:") {
		return false
	}
	if strings.Contains(strings.ToLower(segment), "end of story") {
		return false
	}
	if strings.Contains(segment, "```") {
		return false
	}
	return true
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
