package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyvideo/internal/catalog"
	"storyvideo/internal/config"
	"storyvideo/internal/history"
	"storyvideo/internal/matching"
	"storyvideo/internal/render"
	"storyvideo/internal/services"
	"storyvideo/internal/storyvideo"
	"storyvideo/internal/timeline"
	"storyvideo/internal/transcription"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Transcription backend: google")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	// The sample must load as-is.
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestInvalidConfigFailsBeforeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[render]\nwidth = 101\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"keywords", "a.jpg"}, env.configPath); err == nil {
		t.Fatal("expected odd width to be rejected")
	}
}

func TestKeywordsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"keywords", "photos/sunset_beach-golden.jpg"}, env.configPath)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	requireContains(t, out, "sunset, beach, golden")

	out, _, err = runCLI(t, []string{"keywords", "--json", "sunset_beach.png", "x.png"}, env.configPath)
	if err != nil {
		t.Fatalf("keywords --json: %v", err)
	}
	var rows []keywordRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0].Keywords, ",") != "sunset,beach" {
		t.Fatalf("unexpected keywords %v", rows[0].Keywords)
	}
	if rows[1].Keywords == nil || len(rows[1].Keywords) != 0 {
		t.Fatalf("expected empty keyword list, got %#v", rows[1].Keywords)
	}

	out, _, err = runCLI(t, []string{"keywords", "--text", "--json", "The golden sunset!"}, env.configPath)
	if err != nil {
		t.Fatalf("keywords --text: %v", err)
	}
	requireContains(t, out, `"golden"`)
	requireContains(t, out, `"sunset"`)
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "[PASS]")
	requireContains(t, out, "[SKIP] disabled")
	requireContains(t, out, "keyword fallback only")

	if err := os.Remove(filepath.Join(env.binDir, "ffmpeg")); err != nil {
		t.Fatal(err)
	}
	out, _, err = runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail without ffmpeg")
	}
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "[FAIL]")
}

func TestRenderFlagValidation(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := [][]string{
		{"render", "--audio", "a.mp3"},
		{"render", "--images", "imgs"},
		{"render", "--images", "imgs", "--audio", "a.mp3", "--audio", "b.mp3", "--output", "x.mp4"},
		{"render", "--images", "imgs", "--audio", "a.mp3", "--resolution", "wide", "--skip-checks"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, env.configPath); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
}

func TestRenderPreflightFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.Remove(filepath.Join(env.binDir, "ffprobe")); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"render", "--images", t.TempDir(), "--audio", "a.mp3"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), "FFprobe")
}

func TestPlanMissingAudioIsNotFound(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "missing.mp3")

	_, _, err := runCLI(t, []string{"plan", "--images", t.TempDir(), "--audio", missing}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	store, err := history.Open(loadTestConfig(t, env))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	runs, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected rejected request to leave no journal entry, got %d", len(runs))
	}
}

func loadTestConfig(t *testing.T, env *cliTestEnv) *config.Config {
	t.Helper()
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	store, err := history.Open(loadTestConfig(t, env))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)
	if err := store.Begin(ctx, history.Run{ID: "0123456789abcdef", AudioPath: "/n/story.mp3", ImagesDir: "/imgs", Style: "smooth", StartedAt: started}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Finish(ctx, "0123456789abcdef", history.Outcome{SegmentCount: 4, UniqueImages: 3, AverageConfidence: 0.65}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := store.Begin(ctx, history.Run{ID: "fedcba9876543210", AudioPath: "/n/crash.mp3", ImagesDir: "/imgs", StartedAt: started.Add(time.Second)}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "01234567")
	requireContains(t, out, "story.mp3")
	requireContains(t, out, "running")
	requireContains(t, out, "1 ok, 0 failed, 0 canceled")

	out, _, err = runCLI(t, []string{"history", "--repair", "--json", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --repair: %v", err)
	}
	requireContains(t, out, "Marked 1 interrupted run(s)")
	payload := out[strings.Index(out, "["):]
	var runs []historyRun
	if err := json.Unmarshal([]byte(payload), &runs); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].ID != "fedcba9876543210" {
		t.Fatalf("expected newest run only, got %+v", runs)
	}
	if runs[0].Status != "failed" || runs[0].FailureKind != "interrupted" {
		t.Fatalf("expected interrupted failure, got %+v", runs[0])
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	content, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	updated := strings.Replace(string(content), "[history]\nenabled = true", "[history]\nenabled = false", 1)
	if err := os.WriteFile(env.configPath, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "disabled")
}

func TestParseResolution(t *testing.T) {
	cases := []struct {
		in   string
		w, h int
		ok   bool
	}{
		{"1080x1920", 1080, 1920, true},
		{" 720X1280 ", 720, 1280, true},
		{"1920", 0, 0, false},
		{"0x100", 0, 0, false},
		{"101x200", 0, 0, false},
		{"axb", 0, 0, false},
	}
	for _, tc := range cases {
		w, h, err := parseResolution(strings.TrimSpace(tc.in))
		if tc.ok != (err == nil) {
			t.Fatalf("%q: unexpected error state %v", tc.in, err)
		}
		if tc.ok && (w != tc.w || h != tc.h) {
			t.Fatalf("%q: got %dx%d", tc.in, w, h)
		}
	}
}

func TestPrintResultShowsTimeline(t *testing.T) {
	matches := []matching.Result{
		{
			Segment:    transcription.Segment{Text: "a red car", Start: 0, End: 2.5},
			Image:      catalog.Image{Path: "/imgs/car_red.jpg"},
			Confidence: 0.8,
			Source:     matching.SourceOracle,
		},
		{
			Segment:    transcription.Segment{Text: "on the beach", Start: 2.5, End: 5},
			Image:      catalog.Image{Path: "/imgs/beach.png"},
			Confidence: 0.5,
			Source:     matching.SourceFallback,
		},
	}
	items, err := timeline.Build(matches)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result := &storyvideo.Result{
		RunID:       "abcdef0123456789",
		VideoPath:   "/out/story_video_abcdef01.mp4",
		Style:       render.StyleSmooth,
		Transcriber: "google",
		Summary:     timeline.Summarize(items, len(matches), 5),
		Matches:     matches,
		Stats:       matching.Summarize(matches),
	}

	var sb strings.Builder
	printResult(&report{out: &sb}, result, false)
	out := sb.String()
	requireContains(t, out, "Run abcdef01\n============")
	requireContains(t, out, "Video:")
	requireContains(t, out, "story_video_abcdef01.mp4")
	requireContains(t, out, "car_red.jpg")
	requireContains(t, out, "fallback")
	requireContains(t, out, "1 oracle, 1 fallback")
	requireContains(t, out, "0.65")
}

func TestCleanCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	workDir := filepath.Join(env.baseDir, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(workDir, "dead-run")
	live := filepath.Join(workDir, "live-run")
	for _, dir := range []string{stale, live} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"clean", "--list"}, env.configPath)
	if err != nil {
		t.Fatalf("clean --list: %v", err)
	}
	requireContains(t, out, "dead-run")
	requireContains(t, out, "live-run")

	out, _, err = runCLI(t, []string{"clean"}, env.configPath)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	requireContains(t, out, "Removed 1 run directory")
	if _, err := os.Stat(live); err != nil {
		t.Fatal("recent run directory should survive the age sweep")
	}

	store, err := history.Open(loadTestConfig(t, env))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	if err := store.Begin(context.Background(), history.Run{ID: "live-run", AudioPath: "/a.mp3", ImagesDir: "/imgs"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	store.Close()
	orphan := filepath.Join(workDir, "orphan-run")
	if err := os.Mkdir(orphan, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err = runCLI(t, []string{"clean", "--orphans"}, env.configPath)
	if err != nil {
		t.Fatalf("clean --orphans: %v", err)
	}
	requireContains(t, out, "orphan-run")
	if _, err := os.Stat(live); err != nil {
		t.Fatal("directory of a running journal entry must survive")
	}
}
