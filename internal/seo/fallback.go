package seo

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storyforge/internal/story"
)

var charSetting = regexp.MustCompile(`about\s+(.*?)\s+going\s+on\s+an\s+adventure\s+in\s+(.*?)(?:\s+in\s+a\s+|\.)`)

var staticTags = []string{
	"children's story",
	"kids animation",
	"bedtime story",
	"animated story",
	"family friendly",
	"kids entertainment",
	"story time",
	"animated adventure",
	"educational content",
	"preschool",
	"moral story",
	"3D animation",
	"storybook",
}

var titleCaser = cases.Title(language.English)

// Fallback builds a deterministic metadata bundle from the story alone. The
// title templates an excerpt of the opening narration; tags combine a static
// list with capitalized names found in the text.
func Fallback(st story.Story, now time.Time) Bundle {
	character := "an animal"
	setting := "an adventure"
	if match := charSetting.FindStringSubmatch(st.Prompt); match != nil {
		character = strings.TrimSpace(match[1])
		setting = strings.TrimSpace(match[2])
	}

	opening := ""
	if len(st.Segments) > 0 {
		opening = st.Segments[0].Text
	}

	title := fmt.Sprintf("Adventure of %s in %s | Children's Story", titleCaser.String(character), setting)
	if excerpt := titleExcerpt(opening); excerpt != "" {
		title = excerpt + " | Children's Story"
	}
	title = truncate(title, maxTitleLength)
	preview := truncate(st.FullText(), 500)

	description := fmt.Sprintf(
		"Join %s on an exciting adventure in %s!\n\n%s\n\n"+
			"This animated children's story is perfect for bedtime reading, family story time, "+
			"or whenever your child wants to explore magical worlds and learn valuable lessons.\n\n"+
			"#ChildrensStory #Animation #KidsEntertainment\n\nCreated: %s",
		character, setting, preview, now.Format("2006-01-02"))
	if strings.TrimSpace(preview) == "" && opening != "" {
		description = opening
	}

	tags := make([]string, 0, len(staticTags)+8)
	tags = append(tags, staticTags...)
	tags = append(tags, character, setting)
	tags = append(tags, properNames(st.Texts())...)

	return Bundle{
		Title:       title,
		Description: description,
		Tags:        dedupe(tags),
	}
}

// titleExcerpt trims the opening narration to its first sentence, clamped to
// eight words, for use in the fallback title template.
func titleExcerpt(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?"); idx > 0 {
		text = text[:idx]
	}
	words := strings.Fields(text)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}

// properNames collects capitalized words that appear mid-sentence, which in
// children's story text are almost always character or place names.
func properNames(texts []string) []string {
	var names []string
	for _, text := range texts {
		words := strings.Fields(text)
		for i, word := range words {
			trimmed := strings.TrimFunc(word, func(r rune) bool {
				return !unicode.IsLetter(r)
			})
			if trimmed == "" || i == 0 {
				continue
			}
			if prev := words[i-1]; strings.HasSuffix(prev, ".") || strings.HasSuffix(prev, "!") || strings.HasSuffix(prev, "?") {
				continue
			}
			if unicode.IsUpper([]rune(trimmed)[0]) && len(trimmed) > 2 {
				names = append(names, trimmed)
			}
		}
	}
	return names
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
