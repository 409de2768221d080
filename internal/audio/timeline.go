package audio

import (
	"fmt"
	"io"
	"os"
	"time"

	"storyforge/internal/media/wav"
)

// SegmentWindow is one segment's [start, end) interval on the timeline.
type SegmentWindow struct {
	Ordinal int
	Start   time.Duration
	End     time.Duration
}

// Duration returns the narration time of the window, gap excluded.
func (w SegmentWindow) Duration() time.Duration { return w.End - w.Start }

// Timeline is the concatenated narration track: every clip in ordinal order
// with a fixed silence gap between consecutive segments, plus the
// cumulative-offset table mapping segment ordinals to time windows.
type Timeline struct {
	SampleRate int
	Samples    []int16
	Gap        time.Duration
	Offsets    []SegmentWindow
}

// TotalDuration returns the playback time of the whole track.
func (t Timeline) TotalDuration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(t.Samples)) / float64(t.SampleRate) * float64(time.Second))
}

// SegmentDuration returns the narration duration for ordinal, zero when out
// of range.
func (t Timeline) SegmentDuration(ordinal int) time.Duration {
	if ordinal < 0 || ordinal >= len(t.Offsets) {
		return 0
	}
	return t.Offsets[ordinal].Duration()
}

// buildTimeline concatenates per-segment sample slices with gap silence and
// computes the offset table by running totals. The final segment contributes
// no trailing gap.
func buildTimeline(sampleRate int, clips [][]int16, gap time.Duration) Timeline {
	gapSamples := int(float64(sampleRate) * gap.Seconds())

	total := 0
	for _, clip := range clips {
		total += len(clip)
	}
	if len(clips) > 1 {
		total += gapSamples * (len(clips) - 1)
	}

	samples := make([]int16, 0, total)
	offsets := make([]SegmentWindow, 0, len(clips))
	for i, clip := range clips {
		start := sampleDuration(len(samples), sampleRate)
		samples = append(samples, clip...)
		end := sampleDuration(len(samples), sampleRate)
		offsets = append(offsets, SegmentWindow{Ordinal: i, Start: start, End: end})
		if i < len(clips)-1 {
			samples = append(samples, make([]int16, gapSamples)...)
		}
	}

	return Timeline{SampleRate: sampleRate, Samples: samples, Gap: gap, Offsets: offsets}
}

func sampleDuration(count, rate int) time.Duration {
	return time.Duration(float64(count) / float64(rate) * float64(time.Second))
}

// WriteWAV encodes the track as a mono 16-bit PCM WAV stream.
func (t Timeline) WriteWAV(w io.Writer) error {
	return wav.Encode(w, t.SampleRate, t.Samples)
}

// SaveWAV writes the track to path.
func (t Timeline) SaveWAV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio save: %w", err)
	}
	defer file.Close()
	if err := t.WriteWAV(file); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("audio save: %w", err)
	}
	return nil
}
