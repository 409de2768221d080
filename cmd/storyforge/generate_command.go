package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"storyforge/internal/audio"
	"storyforge/internal/config"
	"storyforge/internal/deps"
	"storyforge/internal/drive"
	"storyforge/internal/logging"
	"storyforge/internal/pipeline"
	"storyforge/internal/prompt"
	"storyforge/internal/render"
	"storyforge/internal/runs"
	"storyforge/internal/seo"
	"storyforge/internal/services"
	"storyforge/internal/services/gemini"
	"storyforge/internal/services/speech"
	"storyforge/internal/storygen"
)

func newGenerateCommand(cmdCtx *commandContext) *cobra.Command {
	var skipUpload bool

	cmd := &cobra.Command{
		Use:   "generate [topic...]",
		Short: "Generate a narrated story video for a topic",
		Long: "Generate runs the full pipeline: the topic is refined into a story prompt,\n" +
			"a segmented story with images is generated, narration is synthesized, and\n" +
			"the result is assembled into a video with a thumbnail and upload metadata.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.newLogger()
			if err != nil {
				return err
			}

			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" {
				topic = cfg.Story.DefaultPrompt
			}

			if err := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lock := runs.NewLock(filepath.Join(cfg.Paths.WorkspaceDir, "storyforge.lock"))
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer lock.Release()

			store, err := runs.Open(filepath.Join(cfg.Paths.LogDir, "runs.db"))
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer store.Close()

			run, err := store.Create(ctx, topic)
			if err != nil {
				return fmt.Errorf("record run: %w", err)
			}

			ctx = services.WithRunID(ctx, run.ID)
			logger = logging.WithRun(logger, run.ID)

			if err := store.MarkRunning(ctx, run.ID); err != nil {
				return fmt.Errorf("mark run running: %w", err)
			}

			runDir := filepath.Join(cfg.Paths.WorkspaceDir, "runs", run.ID)
			artifacts, err := buildPipeline(cfg, logger).Run(ctx, topic, filepath.Join(runDir, "work"), runDir)
			if err != nil {
				if failErr := store.Fail(context.Background(), run.ID, err.Error()); failErr != nil {
					logger.Error("record run failure", logging.Error(failErr))
				}
				return err
			}

			run.Prompt = artifacts.Prompt
			run.Title = artifacts.Metadata.Title
			run.VideoPath = artifacts.VideoPath
			run.ThumbnailPath = artifacts.ThumbnailPath
			run.MetadataPath = artifacts.MetadataPath
			run.Segments = artifacts.Segments
			run.VideoSeconds = artifacts.VideoDuration.Seconds()
			if err := store.Complete(ctx, run); err != nil {
				return fmt.Errorf("record run completion: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s completed\n", run.ID)
			fmt.Fprintf(out, "  Title:     %s\n", artifacts.Metadata.Title)
			fmt.Fprintf(out, "  Video:     %s (%s)\n", artifacts.VideoPath, artifacts.VideoDuration.Round(time.Millisecond))
			fmt.Fprintf(out, "  Thumbnail: %s\n", artifacts.ThumbnailPath)
			fmt.Fprintf(out, "  Metadata:  %s\n", artifacts.MetadataPath)

			if cfg.Drive.Enabled && !skipUpload {
				uploaded, err := uploadArtifacts(ctx, cfg, logger, artifacts)
				if err != nil {
					return fmt.Errorf("upload artifacts: %w", err)
				}
				for _, file := range uploaded {
					fmt.Fprintf(out, "  Uploaded:  %s (%s)\n", file.Name, file.ID)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "Skip the Drive upload even when it is enabled")
	return cmd
}

func buildPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	contentClient := gemini.NewClient(gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		BaseURL:           cfg.Gemini.BaseURL,
		PromptModel:       cfg.Gemini.PromptModel,
		StoryModel:        cfg.Gemini.StoryModel,
		TimeoutSeconds:    cfg.Gemini.TimeoutSeconds,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
	})
	speechClient := speech.NewClient(speech.Config{
		Endpoint:       cfg.Speech.Endpoint,
		Voice:          cfg.Speech.Voice,
		SampleRate:     cfg.Speech.SampleRate,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
	})

	baseDelay := time.Duration(cfg.Retry.BaseDelayMillis) * time.Millisecond
	maxDelay := time.Duration(cfg.Retry.MaxDelayMillis) * time.Millisecond
	policy := func(stage string, attempts int) services.RetryPolicy {
		return services.NewRetryPolicy(stage, attempts, baseDelay, maxDelay, logger)
	}

	assembler := render.NewAssembler(render.Options{
		Width:      cfg.Video.Width,
		Height:     cfg.Video.Height,
		FPS:        cfg.Video.FPS,
		Crossfade:  time.Duration(cfg.Video.CrossfadeMillis) * time.Millisecond,
		ZoomFactor: cfg.Video.ZoomFactor,
		Bitrate:    cfg.Video.Bitrate,
	}, cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)

	return pipeline.New(pipeline.Stages{
		Prompt:   prompt.NewStage(contentClient, policy("prompt", cfg.Retry.PromptAttempts), logger),
		Story:    storygen.NewStage(contentClient, policy("story", cfg.Retry.StoryAttempts), cfg.Story.MinSegments, logger),
		Audio:    audio.NewStage(speechClient, policy("speech", cfg.Retry.SpeechAttempts), time.Duration(cfg.Audio.SegmentGapMillis)*time.Millisecond, logger),
		Metadata: seo.NewStage(contentClient, policy("metadata", cfg.Retry.MetadataAttempts), logger),
		Video:    assembler,
	}, logger)
}

func uploadArtifacts(ctx context.Context, cfg *config.Config, logger *slog.Logger, artifacts *pipeline.Artifacts) ([]drive.File, error) {
	client, err := drive.NewClient(ctx, drive.Config{
		Enabled:  cfg.Drive.Enabled,
		FolderID: cfg.Drive.FolderID,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client.UploadArtifacts(ctx, []drive.Artifact{
		{Name: filepath.Base(artifacts.VideoPath), Path: artifacts.VideoPath, MIMEType: "video/mp4"},
		{Name: filepath.Base(artifacts.ThumbnailPath), Path: artifacts.ThumbnailPath, MIMEType: "image/png"},
		{Name: filepath.Base(artifacts.MetadataPath), Path: artifacts.MetadataPath, MIMEType: "application/json"},
	})
}
