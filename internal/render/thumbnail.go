package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storyforge/internal/logging"
	"storyforge/internal/story"
)

const (
	thumbnailWidth  = 1280
	thumbnailHeight = 720
	thumbnailBanner = "Children's Story Animation"
)

// Thumbnail renders a YouTube-style thumbnail from the story's hero
// image: the second image when one exists, otherwise the first. The
// title is drawn over a dark box along the bottom edge and a banner
// label along the top.
//
// Thumbnail generation is best-effort. If ffmpeg fails, the hero image
// is copied to outputPath unmodified and no error is returned; only a
// missing image set or unwritable output is reported.
func (a *Assembler) Thumbnail(ctx context.Context, st *story.Story, title, workDir, outputPath string) (string, error) {
	if st == nil || len(st.Segments) == 0 {
		return "", fmt.Errorf("render: no images available for thumbnail")
	}

	heroIndex := 1
	if len(st.Segments) < 2 {
		heroIndex = 0
	}
	hero := st.Segments[heroIndex]

	heroPath := filepath.Join(workDir, "thumbnail_source"+imageExtension(hero.Image.MIMEType))
	if err := os.WriteFile(heroPath, hero.Image.Data, 0o644); err != nil {
		return "", fmt.Errorf("render: write thumbnail source: %w", err)
	}

	args := []string{
		"-y", "-v", "error",
		"-i", heroPath,
		"-vf", thumbnailFilter(title),
		"-frames:v", "1",
		outputPath,
	}
	if err := a.run(ctx, a.ffmpeg, args...); err != nil {
		a.logger.Warn("thumbnail overlay failed, using plain hero image",
			logging.Error(err),
			logging.String("output", outputPath))
		if copyErr := os.WriteFile(outputPath, hero.Image.Data, 0o644); copyErr != nil {
			return "", fmt.Errorf("render: write fallback thumbnail: %w", copyErr)
		}
	}
	return outputPath, nil
}

func thumbnailFilter(title string) string {
	parts := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", thumbnailWidth, thumbnailHeight),
		fmt.Sprintf("crop=%d:%d", thumbnailWidth, thumbnailHeight),
		"drawbox=x=0:y=ih-120:w=iw:h=120:color=black@0.6:t=fill",
		fmt.Sprintf("drawtext=text='%s':fontcolor=white:fontsize=%d:x=(w-text_w)/2:y=h-88",
			escapeDrawText(title), titleFontSize(title)),
		"drawbox=x=0:y=0:w=iw:h=80:color=black@0.45:t=fill",
		fmt.Sprintf("drawtext=text='%s':fontcolor=white:fontsize=38:x=(w-text_w)/2:y=22", escapeDrawText(thumbnailBanner)),
	}
	return strings.Join(parts, ",")
}

// titleFontSize bounds the title so it fits the canvas: 52pt until the
// estimated text width (roughly 0.55 of the point size per glyph) would
// overflow the usable 1160px, then shrinks with a 28pt floor.
func titleFontSize(title string) int {
	size := 52
	glyphs := len([]rune(title))
	if glyphs == 0 {
		return size
	}
	if fit := int(1160.0 / (0.55 * float64(glyphs))); fit < size {
		size = fit
	}
	if size < 28 {
		size = 28
	}
	return size
}

// escapeDrawText escapes the characters ffmpeg's drawtext filter treats
// specially inside a quoted text value.
func escapeDrawText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}
