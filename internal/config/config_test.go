package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"storyvideo/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

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

	wantOutput := filepath.Join(tempHome, ".local", "share", "storyvideo", "videos")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Render.Width != 1080 || cfg.Render.Height != 1920 {
		t.Fatalf("expected vertical 1080x1920 default, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.Style != "smooth" {
		t.Fatalf("expected smooth default style, got %q", cfg.Render.Style)
	}
	if cfg.Render.FPS != 30 {
		t.Fatalf("expected 30 fps, got %d", cfg.Render.FPS)
	}
	if cfg.Matching.MaxCandidates != 20 {
		t.Fatalf("expected 20 candidates, got %d", cfg.Matching.MaxCandidates)
	}
	if cfg.Matching.Language != "pt" {
		t.Fatalf("expected pt keyword language, got %q", cfg.Matching.Language)
	}
	if cfg.Transcription.Backend != "whisperx" {
		t.Fatalf("expected whisperx backend, got %q", cfg.Transcription.Backend)
	}
	if !strings.HasPrefix(cfg.History.Path, tempHome) {
		t.Fatalf("expected history path under HOME, got %q", cfg.History.Path)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.WorkDir} {
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
	configPath := filepath.Join(tempDir, "storyvideo.toml")

	type payload struct {
		Render struct {
			Style  string `toml:"style"`
			Width  int    `toml:"width"`
			Height int    `toml:"height"`
		} `toml:"render"`
		Matching struct {
			Language string `toml:"language"`
		} `toml:"matching"`
		Workflow struct {
			MaxConcurrentRuns int `toml:"max_concurrent_runs"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Render.Style = "Ken_Burns"
	custom.Render.Width = 1920
	custom.Render.Height = 1080
	custom.Matching.Language = "EN"
	custom.Workflow.MaxConcurrentRuns = 3
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
	if cfg.Render.Style != "ken_burns" {
		t.Fatalf("expected normalized style, got %q", cfg.Render.Style)
	}
	if cfg.Render.Width != 1920 || cfg.Render.Height != 1080 {
		t.Fatalf("unexpected resolution %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Matching.Language != "en" {
		t.Fatalf("expected lowercased language, got %q", cfg.Matching.Language)
	}
	if cfg.Workflow.MaxConcurrentRuns != 3 {
		t.Fatalf("expected 3 concurrent runs, got %d", cfg.Workflow.MaxConcurrentRuns)
	}
}

func TestEnvVarOverridesConfigFileForLLMKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "storyvideo.toml")
	if err := os.WriteFile(configPath, []byte("[llm]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STORYVIDEO_LLM_API_KEY", "env-key")
	t.Setenv("HF_TOKEN", "env-hf")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Transcription.HFToken != "env-hf" {
		t.Errorf("expected HF token from env, got %q", cfg.Transcription.HFToken)
	}
	if got := cfg.GetLLM().APIKey; got != "env-key" {
		t.Errorf("GetLLM returned %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.OutputDir, "storyvideo") {
		t.Fatalf("expected output dir to contain storyvideo, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Render.Style != "smooth" {
		t.Fatalf("expected sample style smooth, got %q", cfg.Render.Style)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero width")
	}

	cfg = config.Default()
	cfg.Render.Height = 1081
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for odd height")
	}

	cfg = config.Default()
	cfg.Transcription.Backend = "vosk"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg = config.Default()
	cfg.Transcription.VADMethod = "webrtc"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown vad method")
	}

	cfg = config.Default()
	cfg.Workflow.MaxConcurrentRuns = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero concurrent runs")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
