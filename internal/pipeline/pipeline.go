package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bpradana/weave"

	"storyforge/internal/audio"
	"storyforge/internal/logging"
	"storyforge/internal/render"
	"storyforge/internal/seo"
	"storyforge/internal/services"
	"storyforge/internal/story"
)

// PromptRefiner turns a raw topic into a structured story prompt.
type PromptRefiner interface {
	Refine(ctx context.Context, topic string) (string, error)
}

// StoryGenerator produces a validated story from a refined prompt.
type StoryGenerator interface {
	Generate(ctx context.Context, prompt string) (story.Story, error)
}

// Narrator synthesizes the narration timeline for a story.
type Narrator interface {
	Synthesize(ctx context.Context, st story.Story) (audio.Timeline, error)
}

// MetadataDeriver produces upload metadata for a story.
type MetadataDeriver interface {
	Derive(ctx context.Context, st story.Story) (seo.Bundle, error)
}

// Assembler renders the final video and thumbnail.
type Assembler interface {
	Assemble(ctx context.Context, st *story.Story, timeline audio.Timeline, workDir, outputPath string) (*render.Result, error)
	Thumbnail(ctx context.Context, st *story.Story, title, workDir, outputPath string) (string, error)
}

// Stages bundles the stage implementations a Pipeline drives.
type Stages struct {
	Prompt   PromptRefiner
	Story    StoryGenerator
	Audio    Narrator
	Metadata MetadataDeriver
	Video    Assembler
}

// Pipeline runs the full topic-to-video flow.
type Pipeline struct {
	stages Stages
	logger *slog.Logger
}

// New constructs a Pipeline from its stage implementations.
func New(stages Stages, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		stages: stages,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Artifacts describes everything a completed run produced.
type Artifacts struct {
	RunID         string        `json:"run_id,omitempty"`
	Topic         string        `json:"topic"`
	Prompt        string        `json:"prompt"`
	Segments      int           `json:"segments"`
	Metadata      seo.Bundle    `json:"metadata"`
	VideoPath     string        `json:"video_path"`
	ThumbnailPath string        `json:"thumbnail_path"`
	MetadataPath  string        `json:"metadata_path"`
	StoryPath     string        `json:"story_path"`
	VideoDuration time.Duration `json:"video_duration_ns"`
}

// Run executes every stage for topic. Intermediate files go under
// workDir and the finished artifacts under outputDir. The first stage
// failure becomes the run's single terminal error; stages downstream of
// a failure are never invoked.
func (p *Pipeline) Run(ctx context.Context, topic, workDir, outputDir string) (*Artifacts, error) {
	for _, dir := range []string{workDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "create directories", err)
		}
	}

	graph := weave.NewGraph()

	promptTask, err := weave.AddTask(graph, "prompt", func(ctx context.Context, _ weave.DependencyResolver) (string, error) {
		return p.stages.Prompt.Refine(ctx, topic)
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: define prompt task: %w", err)
	}

	storyTask, err := weave.AddTask(graph, "story", func(ctx context.Context, deps weave.DependencyResolver) (story.Story, error) {
		prompt, err := promptTask.Value(deps)
		if err != nil {
			return story.Story{}, err
		}
		return p.stages.Story.Generate(ctx, prompt)
	}, weave.DependsOn(promptTask))
	if err != nil {
		return nil, fmt.Errorf("pipeline: define story task: %w", err)
	}

	audioTask, err := weave.AddTask(graph, "audio", func(ctx context.Context, deps weave.DependencyResolver) (audio.Timeline, error) {
		st, err := storyTask.Value(deps)
		if err != nil {
			return audio.Timeline{}, err
		}
		return p.stages.Audio.Synthesize(ctx, st)
	}, weave.DependsOn(storyTask))
	if err != nil {
		return nil, fmt.Errorf("pipeline: define audio task: %w", err)
	}

	metadataTask, err := weave.AddTask(graph, "metadata", func(ctx context.Context, deps weave.DependencyResolver) (seo.Bundle, error) {
		st, err := storyTask.Value(deps)
		if err != nil {
			return seo.Bundle{}, err
		}
		return p.stages.Metadata.Derive(ctx, st)
	}, weave.DependsOn(storyTask))
	if err != nil {
		return nil, fmt.Errorf("pipeline: define metadata task: %w", err)
	}

	assembleTask, err := weave.AddTask(graph, "assemble", func(ctx context.Context, deps weave.DependencyResolver) (*Artifacts, error) {
		st, err := storyTask.Value(deps)
		if err != nil {
			return nil, err
		}
		timeline, err := audioTask.Value(deps)
		if err != nil {
			return nil, err
		}
		metadata, err := metadataTask.Value(deps)
		if err != nil {
			return nil, err
		}
		return p.assemble(ctx, topic, st, timeline, metadata, workDir, outputDir)
	}, weave.DependsOn(storyTask, audioTask, metadataTask))
	if err != nil {
		return nil, fmt.Errorf("pipeline: define assemble task: %w", err)
	}

	results, _, runErr := graph.Run(ctx,
		weave.WithErrorStrategy(weave.ContinueOnError),
		weave.WithGlobalHooks(p.hooks()))
	if runErr != nil {
		return nil, runErr
	}

	artifacts, err := assembleTask.Value(results)
	if err != nil {
		return nil, err
	}
	artifacts.RunID, _ = services.RunIDFromContext(ctx)
	return artifacts, nil
}

// assemble renders the video, draws the thumbnail, and persists the
// story text and metadata next to it.
func (p *Pipeline) assemble(ctx context.Context, topic string, st story.Story, timeline audio.Timeline, metadata seo.Bundle, workDir, outputDir string) (*Artifacts, error) {
	videoPath := filepath.Join(outputDir, "video.mp4")
	result, err := p.stages.Video.Assemble(ctx, &st, timeline, workDir, videoPath)
	if err != nil {
		return nil, err
	}

	thumbnailPath, err := p.stages.Video.Thumbnail(ctx, &st, metadata.Title, workDir, filepath.Join(outputDir, "thumbnail.png"))
	if err != nil {
		return nil, err
	}

	storyPath := filepath.Join(outputDir, "story.txt")
	if err := os.WriteFile(storyPath, []byte(st.FullText()+"\n"), 0o644); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "assemble", "write story text", err)
	}

	metadataPath := filepath.Join(outputDir, "metadata.json")
	encoded, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "assemble", "encode metadata", err)
	}
	if err := os.WriteFile(metadataPath, append(encoded, '\n'), 0o644); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "assemble", "write metadata", err)
	}

	return &Artifacts{
		Topic:         topic,
		Prompt:        st.Prompt,
		Segments:      len(st.Segments),
		Metadata:      metadata,
		VideoPath:     result.VideoPath,
		ThumbnailPath: thumbnailPath,
		MetadataPath:  metadataPath,
		StoryPath:     storyPath,
		VideoDuration: result.Duration,
	}, nil
}

func (p *Pipeline) hooks() weave.Hooks {
	return weave.Hooks{
		OnStart: func(ctx context.Context, event weave.TaskEvent) {
			p.logger.Debug("stage started", logging.String(logging.FieldStage, event.Metadata.ID))
		},
		OnSuccess: func(ctx context.Context, event weave.TaskEvent) {
			p.logger.Info("stage completed",
				logging.String(logging.FieldStage, event.Metadata.ID),
				logging.Duration("elapsed", event.Metrics.Duration))
		},
		OnFailure: func(ctx context.Context, event weave.TaskEvent) {
			if event.Metrics.Status == weave.StatusSkipped {
				p.logger.Debug("stage skipped", logging.String(logging.FieldStage, event.Metadata.ID))
				return
			}
			p.logger.Error("stage failed",
				logging.String(logging.FieldStage, event.Metadata.ID),
				logging.Error(event.Metrics.Error))
		},
	}
}
