// Package google transcribes narration with Google Cloud Speech-to-Text.
//
// Audio is converted to mono 16 kHz FLAC with ffmpeg and sent inline to
// LongRunningRecognize with word time offsets enabled. Each recognition
// result becomes one segment. Credentials come from the standard Google
// application-default chain (GOOGLE_APPLICATION_CREDENTIALS).
package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"storyvideo/internal/services"
	"storyvideo/internal/transcription"
)

const sampleRateHertz = 16000

// maxInlineBytes is the request payload ceiling for inline audio content.
const maxInlineBytes = 10 << 20

// Config captures runtime settings for the Google backend.
type Config struct {
	// LanguageCode is a BCP-47 code such as "pt-BR".
	LanguageCode string
	// Model optionally selects a recognition model ("latest_long", "video").
	Model        string
	WorkDir      string
	FFmpegBinary string
}

// recognizeFunc performs one long-running recognition and waits for it.
type recognizeFunc func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)

// Adapter implements transcription.Transcriber.
type Adapter struct {
	cfg       Config
	runner    services.CommandRunner
	recognize recognizeFunc
	closer    func() error
}

// New creates a Google adapter backed by a Speech client.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "google client", "create speech client", err)
	}
	recognize := func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	}
	adapter := newAdapter(cfg, recognize)
	adapter.closer = client.Close
	return adapter, nil
}

func newAdapter(cfg Config, recognize recognizeFunc) *Adapter {
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "pt-BR"
	}
	return &Adapter{cfg: cfg, runner: services.RunCommand, recognize: recognize}
}

// WithCommandRunner overrides how ffmpeg is executed.
func (a *Adapter) WithCommandRunner(runner services.CommandRunner) *Adapter {
	if runner != nil {
		a.runner = runner
	}
	return a
}

// Name identifies the backend in logs and the run journal.
func (a *Adapter) Name() string {
	return "google/" + a.cfg.LanguageCode
}

// Close releases the underlying Speech client.
func (a *Adapter) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Transcribe converts the narration to FLAC and recognizes it.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) ([]transcription.Segment, error) {
	workDir := a.cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("google stt: ensure work dir: %w", err)
	}
	flacPath := filepath.Join(workDir, "narration.flac")
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", audioPath,
		"-vn", "-ac", "1", "-ar", fmt.Sprint(sampleRateHertz),
		"-c:a", "flac",
		flacPath,
	}
	if err := a.runner(ctx, a.cfg.FFmpegBinary, args...); err != nil {
		if services.IsCanceled(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrExternalTool, "transcription", "extract audio", "ffmpeg failed", err)
	}
	content, err := os.ReadFile(flacPath)
	if err != nil {
		return nil, fmt.Errorf("google stt: read audio: %w", err)
	}
	if len(content) > maxInlineBytes {
		return nil, services.Wrap(services.ErrValidation, "transcription", "google", fmt.Sprintf("narration is %d bytes, inline limit is %d", len(content), maxInlineBytes), nil)
	}

	resp, err := a.recognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_FLAC,
			SampleRateHertz:            sampleRateHertz,
			AudioChannelCount:          1,
			LanguageCode:               a.cfg.LanguageCode,
			Model:                      a.cfg.Model,
			EnableWordTimeOffsets:      true,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		if services.IsCanceled(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrTransient, "transcription", "google", "recognize", err)
	}
	return segmentsFromResponse(resp), nil
}

// segmentsFromResponse maps each recognition result to a segment. A result
// starts at its first word (or where the previous one ended) and ends at its
// reported end time.
func segmentsFromResponse(resp *speechpb.LongRunningRecognizeResponse) []transcription.Segment {
	segments := make([]transcription.Segment, 0, len(resp.GetResults()))
	var previousEnd time.Duration
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		best := alternatives[0]
		text := strings.TrimSpace(best.GetTranscript())
		if text == "" {
			continue
		}
		start := previousEnd
		end := result.GetResultEndTime().AsDuration()
		if words := best.GetWords(); len(words) > 0 {
			start = words[0].GetStartTime().AsDuration()
			if last := words[len(words)-1].GetEndTime().AsDuration(); end <= 0 {
				end = last
			}
		}
		if end <= start {
			continue
		}
		segments = append(segments, transcription.Segment{
			Text:  text,
			Start: start.Seconds(),
			End:   end.Seconds(),
		})
		previousEnd = end
	}
	return segments
}
