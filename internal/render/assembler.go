package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"storyforge/internal/audio"
	"storyforge/internal/logging"
	"storyforge/internal/media/ffprobe"
	"storyforge/internal/services"
	"storyforge/internal/story"
)

// ErrRender marks a failed ffmpeg invocation during shot rendering or the
// final crossfade join.
var ErrRender = errors.New("render: ffmpeg invocation failed")

// ErrInputMismatch indicates the image set and narration timeline do not
// describe the same segments. The assembler refuses to start rendering.
var ErrInputMismatch = errors.New("render: images do not match narration timeline")

// CommandRunner executes an external command. The default runner shells
// out; tests substitute a recorder.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// InspectFunc probes a finished media file.
type InspectFunc func(ctx context.Context, binary, path string) (*ffprobe.Result, error)

// Assembler renders the final video and thumbnail with ffmpeg.
type Assembler struct {
	opts    Options
	ffmpeg  string
	ffprobe string
	run     CommandRunner
	inspect InspectFunc
	logger  *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithRunner replaces the external command runner.
func WithRunner(run CommandRunner) Option {
	return func(a *Assembler) { a.run = run }
}

// WithInspector replaces the media probe used for output validation.
func WithInspector(inspect InspectFunc) Option {
	return func(a *Assembler) { a.inspect = inspect }
}

// NewAssembler constructs an Assembler with the given render options.
func NewAssembler(opts Options, ffmpegBinary, ffprobeBinary string, logger *slog.Logger, assemblerOpts ...Option) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	assembler := &Assembler{
		opts:    opts,
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		run:     runCommand,
		inspect: ffprobe.Inspect,
		logger:  logging.NewComponentLogger(logger, "render"),
	}
	for _, opt := range assemblerOpts {
		opt(assembler)
	}
	return assembler
}

// Result describes the artifacts a successful assembly produced.
type Result struct {
	VideoPath string
	Duration  time.Duration
}

// Assemble renders st's images over the narration timeline and writes the
// finished video to outputPath. Intermediate files are written under
// workDir. The image count must match the timeline's segment count; a
// mismatch fails before any file is written.
func (a *Assembler) Assemble(ctx context.Context, st *story.Story, timeline audio.Timeline, workDir, outputPath string) (*Result, error) {
	if st == nil || len(st.Segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "render", "assemble", "story has no segments", nil)
	}
	if len(st.Segments) != len(timeline.Offsets) {
		return nil, fmt.Errorf("%w: %d images for %d narration segments",
			ErrInputMismatch, len(st.Segments), len(timeline.Offsets))
	}

	plan, err := BuildPlan(timeline, a.opts)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "render", "assemble", "build shot plan", err)
	}

	clipDir := filepath.Join(workDir, "clips")
	frameDir := filepath.Join(workDir, "frames")
	for _, dir := range []string{clipDir, frameDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "render", "assemble", "create work directory", err)
		}
	}

	audioPath := filepath.Join(workDir, "narration.wav")
	if err := timeline.SaveWAV(audioPath); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "render", "assemble", "write narration track", err)
	}

	imagePaths, err := writeImages(frameDir, st.Segments)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "render", "assemble", "write story images", err)
	}

	a.logger.Info("assembling video",
		logging.Int("segments", len(plan.Shots)),
		logging.Duration("total", plan.Total),
		logging.String("output", outputPath))

	clipPaths := make([]string, len(plan.Shots))
	for i, shot := range plan.Shots {
		clipPath := filepath.Join(clipDir, fmt.Sprintf("shot_%03d.mp4", shot.Ordinal))
		if err := a.renderShot(ctx, shot, i == len(plan.Shots)-1, imagePaths[i], clipPath); err != nil {
			return nil, err
		}
		clipPaths[i] = clipPath
	}

	if err := a.joinShots(ctx, plan, clipPaths, audioPath, outputPath); err != nil {
		return nil, err
	}

	duration, err := a.verifyOutput(ctx, plan, outputPath)
	if err != nil {
		return nil, err
	}

	a.logger.Info("video assembled",
		logging.String("path", outputPath),
		logging.Duration("duration", duration))
	return &Result{VideoPath: outputPath, Duration: duration}, nil
}

// renderShot renders a single Ken Burns clip. Every clip except the last
// carries an extra crossfade tail that the join consumes.
func (a *Assembler) renderShot(ctx context.Context, shot Shot, last bool, imagePath, clipPath string) error {
	duration := shot.Duration
	if !last {
		duration += a.opts.Crossfade
	}
	frames := Shot{Duration: duration}.Frames(a.opts.FPS)

	args := []string{
		"-y", "-v", "error",
		"-loop", "1",
		"-i", imagePath,
		"-vf", a.shotFilter(shot.Motion, frames),
		"-frames:v", fmt.Sprintf("%d", frames),
		"-r", fmt.Sprintf("%d", a.opts.FPS),
		"-an",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		clipPath,
	}
	if err := a.run(ctx, a.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "render shot",
			fmt.Sprintf("render segment %d", shot.Ordinal), fmt.Errorf("%w: %w", ErrRender, err))
	}
	return nil
}

// shotFilter builds the Ken Burns filter chain: upscale so zoompan has
// subpixel headroom, animate zoom and pan, then scale to the target size.
func (a *Assembler) shotFilter(motion Motion, frames int) string {
	step := math.Abs(motion.ZoomEnd-motion.ZoomStart) / float64(frames)

	var zoomExpr string
	if motion.ZoomEnd >= motion.ZoomStart {
		zoomExpr = fmt.Sprintf("min(zoom+%.6f,%.3f)", step, motion.ZoomEnd)
	} else {
		// zoompan starts at zoom=1, so the first frame jumps to the
		// starting factor before stepping back down.
		zoomExpr = fmt.Sprintf("if(eq(on,1),%.3f,max(zoom-%.6f,%.3f))",
			motion.ZoomStart, step, motion.ZoomEnd)
	}

	var xExpr string
	if motion.PanRight {
		xExpr = fmt.Sprintf("(iw-iw/zoom)*on/%d", frames)
	} else {
		xExpr = fmt.Sprintf("(iw-iw/zoom)*(1-on/%d)", frames)
	}

	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,zoompan=z='%s':x='%s':y='ih/2-(ih/zoom/2)':d=%d:fps=%d:s=%dx%d,setsar=1,format=yuv420p",
		a.opts.Width*2, a.opts.Height*2,
		a.opts.Width*2, a.opts.Height*2,
		zoomExpr, xExpr, frames, a.opts.FPS,
		a.opts.Width, a.opts.Height)
}

// joinShots crossfades the rendered clips together and muxes in the
// narration track. Offsets advance by the previous shot's nominal
// duration, so each fade consumes the extra tail rendered into the
// preceding clip and the output lands exactly on the timeline total.
func (a *Assembler) joinShots(ctx context.Context, plan Plan, clipPaths []string, audioPath, outputPath string) error {
	args := []string{"-y", "-v", "error"}
	for _, clip := range clipPaths {
		args = append(args, "-i", clip)
	}
	args = append(args, "-i", audioPath)
	audioIndex := len(clipPaths)

	videoMap := "0:v"
	if len(clipPaths) > 1 {
		var filter strings.Builder
		label := "0:v"
		offset := time.Duration(0)
		for i := 1; i < len(clipPaths); i++ {
			offset += plan.Shots[i-1].Duration
			out := fmt.Sprintf("v%d", i)
			fmt.Fprintf(&filter, "[%s][%d:v]xfade=transition=fade:duration=%.3f:offset=%.3f[%s]",
				label, i, a.opts.Crossfade.Seconds(), offset.Seconds(), out)
			if i < len(clipPaths)-1 {
				filter.WriteString(";")
			}
			label = out
		}
		args = append(args, "-filter_complex", filter.String())
		videoMap = "[" + label + "]"
	}

	args = append(args,
		"-map", videoMap,
		"-map", fmt.Sprintf("%d:a", audioIndex),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
	)
	if a.opts.Bitrate != "" {
		args = append(args, "-b:v", a.opts.Bitrate)
	}
	args = append(args,
		"-c:a", "aac",
		"-shortest",
		outputPath,
	)

	if err := a.run(ctx, a.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "join shots", "crossfade and mux",
			fmt.Errorf("%w: %w", ErrRender, err))
	}
	return nil
}

// verifyOutput probes the finished file and checks it carries a video
// and an audio stream with a duration within one frame of the plan.
func (a *Assembler) verifyOutput(ctx context.Context, plan Plan, outputPath string) (time.Duration, error) {
	result, err := a.inspect(ctx, a.ffprobe, outputPath)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "render", "verify output", "probe assembled video", err)
	}
	if result.VideoStreamCount() == 0 || result.AudioStreamCount() == 0 {
		return 0, services.Wrap(services.ErrExternalTool, "render", "verify output",
			fmt.Sprintf("assembled video has %d video and %d audio streams",
				result.VideoStreamCount(), result.AudioStreamCount()), nil)
	}
	seconds, ok := result.DurationSeconds()
	if !ok {
		return 0, services.Wrap(services.ErrExternalTool, "render", "verify output", "assembled video reports no duration", nil)
	}
	duration := time.Duration(seconds * float64(time.Second))
	tolerance := a.opts.FrameInterval()
	diff := duration - plan.Total
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return 0, services.Wrap(services.ErrExternalTool, "render", "verify output",
			fmt.Sprintf("assembled duration %s differs from timeline %s by more than one frame", duration, plan.Total), nil)
	}
	return duration, nil
}

func writeImages(dir string, segments []story.Segment) ([]string, error) {
	paths := make([]string, len(segments))
	for i, segment := range segments {
		name := fmt.Sprintf("segment_%03d%s", segment.Ordinal, imageExtension(segment.Image.MIMEType))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, segment.Image.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write image %d: %w", segment.Ordinal, err)
		}
		paths[i] = path
	}
	return paths, nil
}

func imageExtension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
