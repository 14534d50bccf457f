package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/protobuf/types/known/durationpb"

	"storyvideo/internal/services"
)

func word(text string, start, end time.Duration) *speechpb.WordInfo {
	return &speechpb.WordInfo{Word: text, StartTime: durationpb.New(start), EndTime: durationpb.New(end)}
}

func TestSegmentsFromResponse(t *testing.T) {
	resp := &speechpb.LongRunningRecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{{
					Transcript: "o carro vermelho",
					Words: []*speechpb.WordInfo{
						word("o", 300*time.Millisecond, 400*time.Millisecond),
						word("vermelho", time.Second, 2*time.Second),
					},
				}},
				ResultEndTime: durationpb.New(2100 * time.Millisecond),
			},
			{Alternatives: nil},
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " a praia "}},
				ResultEndTime: durationpb.New(5 * time.Second),
			},
		},
	}

	got := segmentsFromResponse(resp)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[0].Start != 0.3 || got[0].End != 2.1 || got[0].Text != "o carro vermelho" {
		t.Fatalf("unexpected first segment %+v", got[0])
	}
	if got[1].Start != 2.1 || got[1].End != 5 || got[1].Text != "a praia" {
		t.Fatalf("unexpected second segment %+v", got[1])
	}
}

func TestTranscribeBuildsRequest(t *testing.T) {
	workDir := t.TempDir()
	var captured *speechpb.LongRunningRecognizeRequest
	adapter := newAdapter(Config{LanguageCode: "pt-BR", WorkDir: workDir}, func(_ context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		captured = req
		return &speechpb.LongRunningRecognizeResponse{
			Results: []*speechpb.SpeechRecognitionResult{{
				Alternatives:  []*speechpb.SpeechRecognitionAlternative{{Transcript: "olá"}},
				ResultEndTime: durationpb.New(time.Second),
			}},
		}, nil
	}).WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		return os.WriteFile(filepath.Join(workDir, "narration.flac"), []byte("fLaC"), 0o644)
	})

	segments, err := adapter.Transcribe(context.Background(), "story.mp3")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if len(segments) != 1 || segments[0].End != 1 {
		t.Fatalf("unexpected segments %+v", segments)
	}
	cfg := captured.GetConfig()
	if cfg.GetLanguageCode() != "pt-BR" || !cfg.GetEnableWordTimeOffsets() {
		t.Fatalf("unexpected recognition config %+v", cfg)
	}
	if cfg.GetEncoding() != speechpb.RecognitionConfig_FLAC || cfg.GetSampleRateHertz() != sampleRateHertz {
		t.Fatalf("unexpected encoding %+v", cfg)
	}
	if string(captured.GetAudio().GetContent()) != "fLaC" {
		t.Fatalf("unexpected audio content")
	}
	if adapter.Name() != "google/pt-BR" {
		t.Fatalf("unexpected name %q", adapter.Name())
	}
}

func TestTranscribeClassifiesRecognizeFailure(t *testing.T) {
	workDir := t.TempDir()
	adapter := newAdapter(Config{WorkDir: workDir}, func(context.Context, *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		return nil, errors.New("quota exceeded")
	}).WithCommandRunner(func(context.Context, string, ...string) error {
		return os.WriteFile(filepath.Join(workDir, "narration.flac"), []byte("fLaC"), 0o644)
	})

	_, err := adapter.Transcribe(context.Background(), "story.mp3")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
