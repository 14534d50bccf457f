package history_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storyvideo/internal/history"
	"storyvideo/internal/services"
	"storyvideo/internal/testsupport"
)

func TestBeginAndFinishSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	run := history.Run{ID: "run-1", AudioPath: "/a/narration.mp3", ImagesDir: "/a/images", OutputPath: "/out/v.mp4", Style: "smooth"}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != history.StatusRunning || got.Style != "smooth" || !got.FinishedAt.IsZero() {
		t.Fatalf("unexpected running entry %#v", got)
	}

	outcome := history.Outcome{SegmentCount: 4, ImagesUsed: 4, UniqueImages: 3, OracleAccepted: 1, Fallbacks: 3, AverageConfidence: 0.45, DurationSeconds: 21.5}
	if err := store.Finish(ctx, "run-1", outcome); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	got, err = store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != history.StatusSucceeded || got.FailureKind != "ok" || got.ErrorMessage != "" {
		t.Fatalf("unexpected finished status %#v", got)
	}
	if got.SegmentCount != 4 || got.UniqueImages != 3 || got.AverageConfidence != 0.45 || got.DurationSeconds != 21.5 {
		t.Fatalf("unexpected stats %#v", got)
	}
	if got.FinishedAt.IsZero() || got.Elapsed() < 0 {
		t.Fatalf("expected finish timestamp, got %#v", got)
	}
}

func TestFinishClassifiesErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	cases := []struct {
		id     string
		err    error
		status history.Status
		kind   string
	}{
		{"render", services.Wrap(services.ErrRender, "render", "ffmpeg", "encode failed", errors.New("exit 1")), history.StatusFailed, "render"},
		{"missing", services.Wrap(services.ErrNotFound, "pipeline", "validate", "audio missing", nil), history.StatusFailed, "not_found"},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), history.StatusCanceled, "canceled"},
	}
	for _, tc := range cases {
		if err := store.Begin(ctx, history.Run{ID: tc.id, AudioPath: "a", ImagesDir: "i"}); err != nil {
			t.Fatalf("Begin %s: %v", tc.id, err)
		}
		if err := store.Finish(ctx, tc.id, history.Outcome{Err: tc.err}); err != nil {
			t.Fatalf("Finish %s: %v", tc.id, err)
		}
		got, err := store.Get(ctx, tc.id)
		if err != nil {
			t.Fatalf("Get %s: %v", tc.id, err)
		}
		if got.Status != tc.status || got.FailureKind != tc.kind || got.ErrorMessage == "" {
			t.Fatalf("%s: got status=%s kind=%s msg=%q", tc.id, got.Status, got.FailureKind, got.ErrorMessage)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[history.StatusFailed] != 2 || stats[history.StatusCanceled] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		run := history.Run{ID: fmt.Sprintf("run-%d", i), AudioPath: "a", ImagesDir: "i", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Begin(ctx, run); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}
	runs, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-4" || runs[2].ID != "run-2" {
		t.Fatalf("unexpected order %v", runs)
	}
	all, err := store.List(ctx, 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("expected all runs, got %d err=%v", len(all), err)
	}
	if !all[4].StartedAt.Equal(base) {
		t.Fatalf("started_at round-trip mismatch: %v", all[4].StartedAt)
	}
}

func TestMarkInterrupted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Begin(ctx, history.Run{ID: id, AudioPath: "x", ImagesDir: "y"}); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}
	if err := store.Finish(ctx, "b", history.Outcome{}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	n, err := store.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("MarkInterrupted failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 interrupted run, got %d", n)
	}
	got, _ := store.Get(ctx, "a")
	if got.Status != history.StatusFailed || got.FailureKind != "interrupted" {
		t.Fatalf("unexpected interrupted entry %#v", got)
	}
}

func TestUnknownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
	if err := store.Finish(ctx, "nope", history.Outcome{}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Finish, got %v", err)
	}
	if err := store.Begin(ctx, history.Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Begin(context.Background(), history.Run{ID: "keep", AudioPath: "a", ImagesDir: "i"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenHistory(t, cfg)
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("entry lost after reopen: %v", err)
	}
}
