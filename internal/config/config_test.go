package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"storyforge/internal/config"
)

func TestLoadDefaultConfigUsesEnvGeminiKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWorkspace := filepath.Join(tempHome, ".local", "share", "storyforge", "runs")
	if cfg.Paths.WorkspaceDir != wantWorkspace {
		t.Fatalf("unexpected workspace dir: got %q want %q", cfg.Paths.WorkspaceDir, wantWorkspace)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.BaseURL != config.Default().Gemini.BaseURL {
		t.Fatalf("unexpected Gemini base url: %q", cfg.Gemini.BaseURL)
	}
	if cfg.Speech.SampleRate != 24000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Speech.SampleRate)
	}
	if cfg.Story.MinSegments != 6 {
		t.Fatalf("unexpected min segments: %d", cfg.Story.MinSegments)
	}
	if cfg.Story.DefaultPrompt == "" {
		t.Fatal("expected default prompt to be populated")
	}
	if cfg.Audio.SegmentGapMillis != 500 {
		t.Fatalf("unexpected segment gap: %d", cfg.Audio.SegmentGapMillis)
	}
	if cfg.Video.CrossfadeMillis != 250 {
		t.Fatalf("unexpected crossfade: %d", cfg.Video.CrossfadeMillis)
	}
	if cfg.Drive.Enabled {
		t.Fatal("expected Drive upload disabled by default")
	}
	if cfg.Retry.StoryAttempts != 5 {
		t.Fatalf("unexpected story attempts: %d", cfg.Retry.StoryAttempts)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "storyforge.toml")

	type payload struct {
		Gemini struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"gemini"`
		Story struct {
			MinSegments int `toml:"min_segments"`
		} `toml:"story"`
		Video struct {
			FPS int `toml:"fps"`
		} `toml:"video"`
	}
	custom := payload{}
	custom.Gemini.APIKey = "abc123"
	custom.Gemini.BaseURL = "https://example.com/genai"
	custom.Story.MinSegments = 8
	custom.Video.FPS = 24
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Gemini.APIKey != "abc123" {
		t.Fatalf("expected Gemini key from file, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.BaseURL != "https://example.com/genai" {
		t.Fatalf("expected Gemini base url override, got %q", cfg.Gemini.BaseURL)
	}
	if cfg.Story.MinSegments != 8 {
		t.Fatalf("expected min segments 8, got %d", cfg.Story.MinSegments)
	}
	if cfg.Video.FPS != 24 {
		t.Fatalf("expected fps 24, got %d", cfg.Video.FPS)
	}
}

func TestEnvVarOverridesConfigFileGeminiKey(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "storyforge.toml")
	if err := os.WriteFile(configPath, []byte("[gemini]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "gemini.api_key") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestLoadRejectsOversizedCrossfade(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "storyforge.toml")
	body := "[audio]\nsegment_gap_ms = 400\n\n[video]\ncrossfade_ms = 300\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error for crossfade exceeding half the segment gap")
	}
	if !strings.Contains(err.Error(), "crossfade") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "nested", "config.toml")

	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[gemini]") {
		t.Fatal("expected sample to mention gemini section")
	}
}
