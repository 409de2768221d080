package render

import (
	"fmt"
	"time"

	"storyforge/internal/audio"
)

// Options carries the render parameters for a video assembly.
type Options struct {
	Width      int
	Height     int
	FPS        int
	Crossfade  time.Duration
	ZoomFactor float64
	Bitrate    string
}

// FrameInterval returns the duration of a single video frame.
func (o Options) FrameInterval() time.Duration {
	if o.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(o.FPS)
}

// Motion describes the Ken Burns movement applied to one shot.
type Motion struct {
	ZoomStart float64
	ZoomEnd   float64
	PanRight  bool
}

// Shot is one image's on-screen window within the assembled video.
type Shot struct {
	Ordinal  int
	Start    time.Duration
	Duration time.Duration
	Motion   Motion
}

// Plan is the full shot schedule for a render.
type Plan struct {
	Shots   []Shot
	Total   time.Duration
	Options Options
}

// BuildPlan tiles the narration timeline into shots. Adjacent shots split
// each inter-segment silence at its midpoint, so the shot durations sum
// exactly to the timeline duration: the first shot starts at zero and the
// last one ends at the timeline end. Boundaries come from the offset table
// rather than the nominal gap, which the sample clock may have truncated.
//
// Motion alternates by ordinal to keep adjacent shots visually distinct:
// even ordinals zoom in while panning right, odd ordinals zoom out while
// panning left.
func BuildPlan(timeline audio.Timeline, opts Options) (Plan, error) {
	if len(timeline.Offsets) == 0 {
		return Plan{}, fmt.Errorf("render: timeline has no segments")
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return Plan{}, fmt.Errorf("render: invalid dimensions %dx%d@%d", opts.Width, opts.Height, opts.FPS)
	}
	if opts.ZoomFactor <= 1 {
		return Plan{}, fmt.Errorf("render: zoom factor %.3f must exceed 1", opts.ZoomFactor)
	}
	if opts.Crossfade < 0 || (timeline.Gap > 0 && opts.Crossfade > timeline.Gap/2) {
		return Plan{}, fmt.Errorf("render: crossfade %s exceeds half the segment gap %s", opts.Crossfade, timeline.Gap)
	}

	total := timeline.TotalDuration()
	shots := make([]Shot, 0, len(timeline.Offsets))
	for i, window := range timeline.Offsets {
		start := time.Duration(0)
		if i > 0 {
			prev := timeline.Offsets[i-1]
			start = prev.End + (window.Start-prev.End)/2
		}
		end := total
		if i < len(timeline.Offsets)-1 {
			next := timeline.Offsets[i+1]
			end = window.End + (next.Start-window.End)/2
		}
		shots = append(shots, Shot{
			Ordinal:  window.Ordinal,
			Start:    start,
			Duration: end - start,
			Motion:   motionFor(window.Ordinal, opts.ZoomFactor),
		})
	}

	plan := Plan{Shots: shots, Total: total, Options: opts}
	if err := plan.validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func motionFor(ordinal int, zoom float64) Motion {
	if ordinal%2 == 0 {
		return Motion{ZoomStart: 1.0, ZoomEnd: zoom, PanRight: true}
	}
	return Motion{ZoomStart: zoom, ZoomEnd: 1.0, PanRight: false}
}

// validate checks that the shots tile the timeline without gaps or
// overlap and that their durations sum to the timeline total.
func (p Plan) validate() error {
	var cursor, sum time.Duration
	for _, shot := range p.Shots {
		if shot.Duration <= 0 {
			return fmt.Errorf("render: shot %d has non-positive duration %s", shot.Ordinal, shot.Duration)
		}
		if shot.Start != cursor {
			return fmt.Errorf("render: shot %d starts at %s, want %s", shot.Ordinal, shot.Start, cursor)
		}
		cursor = shot.Start + shot.Duration
		sum += shot.Duration
	}
	if sum != p.Total {
		return fmt.Errorf("render: shot durations sum to %s, timeline is %s", sum, p.Total)
	}
	return nil
}

// Frames returns the number of video frames a shot occupies, rounded to
// the nearest frame with a minimum of one.
func (s Shot) Frames(fps int) int {
	if fps <= 0 {
		return 1
	}
	frames := int((s.Duration*time.Duration(fps) + time.Second/2) / time.Second)
	if frames < 1 {
		frames = 1
	}
	return frames
}
