package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyvideo/internal/logging"
	"storyvideo/internal/render"
	"storyvideo/internal/services"
	"storyvideo/internal/testsupport"
	"storyvideo/internal/timeline"
)

type recordingRunner struct {
	name  string
	args  []string
	calls int
	write bool
	err   error
	hook  func()
}

func (r *recordingRunner) run(ctx context.Context, name string, args ...string) error {
	r.calls++
	r.name = name
	r.args = args
	if r.hook != nil {
		r.hook()
	}
	if r.err != nil {
		return r.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.write {
		return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	}
	return nil
}

func fixture(t *testing.T) (string, []timeline.Item) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "images", "a.png")
	b := filepath.Join(dir, "images", "b.jpg")
	testsupport.WriteImage(t, a, 64, 48)
	testsupport.WriteImage(t, b, 48, 64)
	return dir, []timeline.Item{
		{Start: 0, End: 5, ImagePath: a, Confidence: 0.9},
		{Start: 5, End: 12, ImagePath: b, Confidence: 0.4},
		{Start: 12, End: 16, ImagePath: a, Confidence: 0.5},
	}
}

func outputEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		t.Fatalf("read output dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestRenderPublishesOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir, items := fixture(t)
	output := filepath.Join(cfg.Paths.OutputDir, "story_video_test.mp4")
	runner := &recordingRunner{write: true}
	pipeline := render.NewPipeline(cfg, logging.NewNop(), render.WithCommandRunner(runner.run))

	if err := pipeline.Render(context.Background(), items, filepath.Join(dir, "narration.mp3"), render.StyleKenBurns, output); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if runner.name != "ffmpeg" {
		t.Fatalf("expected ffmpeg, got %q", runner.name)
	}
	if names := outputEntries(t, cfg.Paths.OutputDir); len(names) != 1 || names[0] != "story_video_test.mp4" {
		t.Fatalf("output dir should only hold the final video, got %v", names)
	}

	joined := strings.Join(runner.args, " ")
	if !strings.Contains(joined, "concat=n=3:v=1:a=0") {
		t.Fatalf("expected three-way concat: %s", joined)
	}
	if got := strings.Count(joined, "zoompan"); got != 3 {
		t.Fatalf("expected 3 zoompan filters, got %d", got)
	}
	frames := map[string]int{}
	for i, arg := range runner.args {
		if arg == "-i" && strings.HasSuffix(runner.args[i+1], ".png") {
			frames[runner.args[i+1]]++
		}
	}
	if len(frames) != 2 {
		t.Fatalf("expected one frame per distinct image, got %v", frames)
	}
	if entries, _ := filepath.Glob(filepath.Join(cfg.Paths.WorkDir, "render-*")); len(entries) != 0 {
		t.Fatalf("work directory not cleaned up: %v", entries)
	}
}

func TestRenderFailuresLeaveNoOutput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]timeline.Item) []timeline.Item
		runner  *recordingRunner
		wantErr error
		calls   int
	}{
		{
			name: "missing image",
			mutate: func(items []timeline.Item) []timeline.Item {
				items[1].ImagePath = filepath.Join(filepath.Dir(items[1].ImagePath), "gone.jpg")
				return items
			},
			runner:  &recordingRunner{write: true},
			wantErr: services.ErrRender,
		},
		{
			name: "zero duration",
			mutate: func(items []timeline.Item) []timeline.Item {
				items[2].End = items[2].Start
				return items
			},
			runner:  &recordingRunner{write: true},
			wantErr: services.ErrRender,
		},
		{
			name:    "ffmpeg failure",
			runner:  &recordingRunner{err: errors.New("exit status 1")},
			wantErr: services.ErrRender,
			calls:   1,
		},
		{
			name:    "no output written",
			runner:  &recordingRunner{},
			wantErr: services.ErrRender,
			calls:   1,
		},
		{
			name:    "empty timeline",
			mutate:  func([]timeline.Item) []timeline.Item { return nil },
			runner:  &recordingRunner{write: true},
			wantErr: services.ErrRender,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			dir, items := fixture(t)
			if tt.mutate != nil {
				items = tt.mutate(items)
			}
			output := filepath.Join(cfg.Paths.OutputDir, "out.mp4")
			pipeline := render.NewPipeline(cfg, logging.NewNop(), render.WithCommandRunner(tt.runner.run))

			err := pipeline.Render(context.Background(), items, filepath.Join(dir, "narration.mp3"), render.StyleSmooth, output)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.runner.calls != tt.calls {
				t.Fatalf("ffmpeg called %d times, want %d", tt.runner.calls, tt.calls)
			}
			if names := outputEntries(t, cfg.Paths.OutputDir); len(names) != 0 {
				t.Fatalf("expected empty output dir, got %v", names)
			}
		})
	}
}

func TestRenderCanceledDuringEncode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir, items := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &recordingRunner{write: true, hook: cancel}
	pipeline := render.NewPipeline(cfg, logging.NewNop(), render.WithCommandRunner(runner.run))

	err := pipeline.Render(ctx, items, filepath.Join(dir, "narration.mp3"), render.StyleDynamic, filepath.Join(cfg.Paths.OutputDir, "out.mp4"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if names := outputEntries(t, cfg.Paths.OutputDir); len(names) != 0 {
		t.Fatalf("expected no files after cancellation, got %v", names)
	}
}

func TestRenderCanceledBeforeStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir, items := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &recordingRunner{write: true}
	pipeline := render.NewPipeline(cfg, logging.NewNop(), render.WithCommandRunner(runner.run))

	err := pipeline.Render(ctx, items, filepath.Join(dir, "narration.mp3"), render.StyleSmooth, filepath.Join(cfg.Paths.OutputDir, "out.mp4"))
	if !errors.Is(err, context.Canceled) || runner.calls != 0 {
		t.Fatalf("expected early cancellation, got err=%v calls=%d", err, runner.calls)
	}
}
