package storyvideo

import (
	"context"
	"io"
	"log/slog"

	"storyvideo/internal/config"
	binaries "storyvideo/internal/deps"
	"storyvideo/internal/history"
	"storyvideo/internal/logging"
	"storyvideo/internal/matching"
	"storyvideo/internal/media/ffprobe"
	"storyvideo/internal/render"
	"storyvideo/internal/services"
	"storyvideo/internal/services/llm"
	"storyvideo/internal/timeline"
	"storyvideo/internal/transcription"
	"storyvideo/internal/transcription/google"
	"storyvideo/internal/transcription/whisperx"
)

// Renderer exports a timeline as a video file.
type Renderer interface {
	Render(ctx context.Context, items []timeline.Item, audioPath string, style render.Style, outputPath string) error
}

// TranscriberFactory builds the speech-to-text backend for one run. workDir
// is private to that run. Transcribers that implement io.Closer are closed
// when the run ends.
type TranscriberFactory func(ctx context.Context, workDir string) (transcription.Transcriber, error)

// DurationProbe returns the narration length in seconds.
type DurationProbe func(ctx context.Context, audioPath string) (float64, error)

// Dependencies are the collaborators a Pipeline drives. Zero values are
// filled from the config by NewPipeline.
type Dependencies struct {
	Transcribers TranscriberFactory
	Oracle       matching.Oracle
	Renderer     Renderer
	Probe        DurationProbe
	// History is optional; nil disables the run journal.
	History *history.Store
}

// NewTranscriberFactory selects the backend named by transcription.backend.
func NewTranscriberFactory(cfg *config.Config) TranscriberFactory {
	return func(ctx context.Context, workDir string) (transcription.Transcriber, error) {
		switch cfg.Transcription.Backend {
		case config.BackendGoogle:
			return google.New(ctx, google.Config{
				LanguageCode: cfg.Transcription.LanguageCode,
				Model:        cfg.Transcription.Model,
				WorkDir:      workDir,
				FFmpegBinary: cfg.FFmpegBinary(),
			})
		default:
			return whisperx.NewService(whisperx.Config{
				Model:        cfg.Transcription.Model,
				Language:     cfg.Transcription.Language,
				CUDAEnabled:  cfg.Transcription.CUDAEnabled,
				VADMethod:    cfg.Transcription.VADMethod,
				HFToken:      cfg.Transcription.HFToken,
				WorkDir:      workDir,
				FFmpegBinary: cfg.FFmpegBinary(),
			}), nil
		}
	}
}

// NewOracle returns the LLM-backed oracle, or nil when llm.enabled is false.
func NewOracle(cfg *config.Config, opts ...llm.Option) matching.Oracle {
	client := NewLLMClient(cfg, opts...)
	if client == nil {
		return nil
	}
	return matching.NewLLMOracle(client)
}

// NewLLMClient builds the chat client described by the [llm] section, or nil
// when it is disabled.
func NewLLMClient(cfg *config.Config, opts ...llm.Option) *llm.Client {
	if cfg == nil || !cfg.LLM.Enabled {
		return nil
	}
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, opts...)
}

func (d *Dependencies) fill(cfg *config.Config, logger *slog.Logger) {
	if d.Transcribers == nil {
		d.Transcribers = NewTranscriberFactory(cfg)
	}
	if d.Renderer == nil {
		d.Renderer = render.NewPipeline(cfg, logger)
	}
	if d.Probe == nil {
		binary := binaries.ResolveFFprobe(cfg.FFmpegBinary(), cfg.FFprobeBinary())
		d.Probe = func(ctx context.Context, path string) (float64, error) {
			duration, err := ffprobe.AudioDuration(ctx, binary, path)
			if err != nil {
				return 0, services.Wrap(services.ErrExternalTool, "pipeline", "probe audio", "read narration duration", err)
			}
			return duration, nil
		}
	}
}

func closeTranscriber(t transcription.Transcriber, logger *slog.Logger) {
	closer, ok := t.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("failed to close transcriber", logging.Error(err))
	}
}
