package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"
)

func stubOutput(t *testing.T, output string, err error) *[]string {
	t.Helper()
	var captured []string
	original := commandOutput
	commandOutput = func(_ context.Context, name string, args ...string) ([]byte, error) {
		captured = append([]string{name}, args...)
		return []byte(output), err
	}
	t.Cleanup(func() { commandOutput = original })
	return &captured
}

func TestAudioDurationUsesFormatDuration(t *testing.T) {
	captured := stubOutput(t, `{"streams":[{"codec_type":"audio","duration":"12.0"}],"format":{"duration":"12.480000"}}`, nil)

	got, err := AudioDuration(context.Background(), "", "narration.mp3")
	if err != nil {
		t.Fatalf("AudioDuration returned error: %v", err)
	}
	if got != 12.48 {
		t.Fatalf("duration = %v, want 12.48", got)
	}
	args := *captured
	if args[0] != "ffprobe" || args[len(args)-1] != "narration.mp3" {
		t.Fatalf("unexpected invocation %v", args)
	}
}

func TestAudioDurationFallsBackToStream(t *testing.T) {
	stubOutput(t, `{"streams":[{"codec_type":"audio","duration":"7.5"},{"codec_type":"audio","duration":"n/a"}],"format":{"duration":"bad"}}`, nil)

	got, err := AudioDuration(context.Background(), "ffprobe", "narration.wav")
	if err != nil {
		t.Fatalf("AudioDuration returned error: %v", err)
	}
	if got != 7.5 {
		t.Fatalf("duration = %v, want 7.5", got)
	}
}

func TestAudioDurationRejectsVideoOnly(t *testing.T) {
	stubOutput(t, `{"streams":[{"codec_type":"video"}],"format":{"duration":"3"}}`, nil)
	if _, err := AudioDuration(context.Background(), "ffprobe", "clip.mp4"); err == nil {
		t.Fatal("expected error for file without audio")
	}
}

func TestInspectReportsToolFailure(t *testing.T) {
	stubOutput(t, "No such file", errors.New("exit status 1"))
	if _, err := Inspect(context.Background(), "ffprobe", "missing.mp3"); err == nil {
		t.Fatal("expected error when ffprobe fails")
	}
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Result{}).DurationSeconds() != 0 {
		t.Fatal("expected zero duration for empty format")
	}
}
