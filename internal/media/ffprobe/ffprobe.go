package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Stream describes a single elementary stream reported by ffprobe.
type Stream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Format describes container-level metadata.
type Format struct {
	Filename string `json:"filename"`
	Duration string `json:"duration,omitempty"`
	Size     string `json:"size,omitempty"`
	BitRate  string `json:"bit_rate,omitempty"`
}

// Result is the decoded output of an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Inspect runs ffprobe against path and decodes the JSON report.
func Inspect(ctx context.Context, binary, path string) (*Result, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ffprobe: path is required")
	}

	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--",
		path,
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("ffprobe %s: %w: %s", path, err, detail)
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("ffprobe %s: decode output: %w", path, err)
	}
	return &result, nil
}

// VideoStreamCount reports how many video streams the file carries.
func (r *Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount reports how many audio streams the file carries.
func (r *Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r *Result) countStreams(codecType string) int {
	if r == nil {
		return 0
	}
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// FirstVideoStream returns the first video stream, if any.
func (r *Result) FirstVideoStream() (Stream, bool) {
	if r == nil {
		return Stream{}, false
	}
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds reports the container duration, falling back to the
// longest stream duration when the container does not declare one.
func (r *Result) DurationSeconds() (float64, bool) {
	if r == nil {
		return 0, false
	}
	if d, ok := parseFloat(r.Format.Duration); ok {
		return d, true
	}
	best := 0.0
	found := false
	for _, stream := range r.Streams {
		if d, ok := parseFloat(stream.Duration); ok && d > best {
			best = d
			found = true
		}
	}
	return best, found
}

func parseFloat(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
