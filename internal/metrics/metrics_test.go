package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"storyvideo/internal/metrics"
)

func TestObserveMatchCountsBySource(t *testing.T) {
	m := metrics.New()
	m.ObserveMatch("oracle", 0.8)
	m.ObserveMatch("fallback", 0.5)
	m.ObserveMatch("fallback", 0.3)

	if got := testutil.ToFloat64(m.MatchesTotal.WithLabelValues("oracle")); got != 1 {
		t.Fatalf("oracle matches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MatchesTotal.WithLabelValues("fallback")); got != 2 {
		t.Fatalf("fallback matches = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.MatchConfidence); got != 1 {
		t.Fatalf("expected one confidence histogram, got %d", got)
	}
}

func TestRunsAreIsolated(t *testing.T) {
	first := metrics.New()
	second := metrics.New()
	first.RunFinished("ok")
	first.RunFinished("ok")

	if got := testutil.ToFloat64(first.RunsTotal.WithLabelValues("ok")); got != 2 {
		t.Fatalf("first registry runs = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(second.RunsTotal); got != 0 {
		t.Fatalf("second registry should be empty, got %d series", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := metrics.New()
	m.ObserveStage("render", 12.5)
	m.SegmentsTotal.Add(7)
	m.UniqueImages.Set(4)

	path := filepath.Join(t.TempDir(), "textfile", "storyvideo.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	body := string(data)
	for _, want := range []string{
		"storyvideo_segments_total 7",
		"storyvideo_unique_images 4",
		`storyvideo_stage_duration_seconds_count{stage="render"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("textfile missing %q:\n%s", want, body)
		}
	}
	if err := m.WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op, got %v", err)
	}
}
