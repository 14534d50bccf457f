package storyvideo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storyvideo/internal/catalog"
	"storyvideo/internal/config"
	"storyvideo/internal/history"
	"storyvideo/internal/keywords"
	"storyvideo/internal/logging"
	"storyvideo/internal/matching"
	"storyvideo/internal/metrics"
	"storyvideo/internal/render"
	"storyvideo/internal/services"
	"storyvideo/internal/timeline"
	"storyvideo/internal/transcription"
)

// Stage names used in logs, metrics, and errors.
const (
	StageCatalog       = "catalog"
	StageTranscription = "transcription"
	StageMatching      = "matching"
	StageTimeline      = "timeline"
	StageRender        = "render"
)

// Request describes one run.
type Request struct {
	AudioPath string
	ImagesDir string
	// OutputPath is generated under paths.output_dir when empty.
	OutputPath string
	// Style overrides render.style when set.
	Style string
	// PlanOnly stops after the timeline is built.
	PlanOnly bool
}

// Result is returned by a finished run.
type Result struct {
	RunID       string            `json:"run_id"`
	VideoPath   string            `json:"video_path,omitempty"`
	Style       render.Style      `json:"style"`
	Transcriber string            `json:"transcriber"`
	Summary     timeline.Summary  `json:"summary"`
	Matches     []matching.Result `json:"matches"`
	Stats       matching.Stats    `json:"stats"`
	Elapsed     time.Duration     `json:"elapsed"`
	Metrics     *metrics.Metrics  `json:"-"`
}

// Pipeline runs requests end to end.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Dependencies
}

// NewPipeline builds a pipeline. Missing dependencies are created from cfg.
func NewPipeline(cfg *config.Config, logger *slog.Logger, deps Dependencies) *Pipeline {
	logger = logging.NewComponentLogger(logger, "pipeline")
	deps.fill(cfg, logger)
	return &Pipeline{cfg: cfg, logger: logger, deps: deps}
}

// Run executes req. Not-found and validation failures are reported before
// transcription starts. The context is checked before transcription,
// matching, and rendering; a canceled run leaves no output file behind.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	req, err := p.prepareRequest(req, runID)
	if err != nil {
		return nil, err
	}
	style := render.ParseStyle(p.cfg.Render.Style)
	if strings.TrimSpace(req.Style) != "" {
		style = render.ParseStyle(req.Style)
	}

	var lock *outputLock
	if !req.PlanOnly {
		if lock, err = acquireOutputLock(req.OutputPath); err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.release(); err != nil {
				logger.Warn("failed to release output lock", logging.Error(err))
			}
		}()
	}

	m := metrics.New()
	result := &Result{RunID: runID, Style: style, Metrics: m}
	p.journalBegin(ctx, logger, req, runID, style, started)

	runErr := p.execute(ctx, logger, req, style, result)
	result.Elapsed = time.Since(started)

	outcome := services.FailureKind(runErr)
	m.RunFinished(outcome)
	if runErr == nil {
		m.UniqueImages.Set(float64(result.Summary.UniqueImages))
		m.VideoSeconds.Set(result.Summary.Duration)
	}
	if err := m.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		logger.Warn("failed to export run metrics", logging.Error(err))
	}
	p.journalFinish(ctx, logger, runID, result, runErr)

	if runErr != nil {
		if !services.IsCanceled(runErr) {
			logger.Error("run failed",
				logging.String(logging.FieldEventType, "run_failure"),
				logging.String("failure_kind", outcome),
				logging.Error(runErr),
			)
		}
		return nil, runErr
	}
	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("video", result.VideoPath),
		logging.Int("segments", result.Summary.SegmentCount),
		logging.Int("unique_images", result.Summary.UniqueImages),
		logging.Float64("average_confidence", result.Summary.AverageConfidence),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, req Request, style render.Style, result *Result) error {
	extractor := keywords.New(p.cfg.Matching.Language)

	var images []catalog.Image
	err := p.stage(ctx, result.Metrics, StageCatalog, func(ctx context.Context) error {
		var err error
		images, err = catalog.Discover(ctx, req.ImagesDir, extractor)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return services.Wrap(services.ErrValidation, StageCatalog, "discover",
				fmt.Sprintf("no images found in %s", req.ImagesDir), nil)
		}
		result.Metrics.ImagesCatalogued.Set(float64(len(images)))
		return nil
	})
	if err != nil {
		return err
	}

	workDir := filepath.Join(p.cfg.Paths.WorkDir, result.RunID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "create work directory", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("failed to remove work directory", logging.String("path", workDir), logging.Error(err))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	var segments []transcription.Segment
	var duration float64
	err = p.stage(ctx, result.Metrics, StageTranscription, func(ctx context.Context) error {
		var err error
		segments, duration, err = p.transcribe(ctx, logger, req.AudioPath, workDir, extractor, result)
		return err
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	err = p.stage(ctx, result.Metrics, StageMatching, func(ctx context.Context) error {
		engine := matching.NewEngine(p.deps.Oracle,
			matching.WithMaxCandidates(p.cfg.Matching.MaxCandidates),
			matching.WithOracleTimeout(time.Duration(p.cfg.Matching.OracleTimeoutSeconds)*time.Second),
			matching.WithExtractor(extractor),
			matching.WithLogger(p.logger),
			matching.WithObserver(func(r matching.Result) {
				result.Metrics.ObserveMatch(string(r.Source), r.Confidence)
			}),
		)
		matches, err := engine.FindBestMatches(ctx, segments, images)
		if err != nil {
			return err
		}
		result.Matches = matches
		result.Stats = matching.Summarize(matches)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result.Metrics, StageTimeline, func(context.Context) error {
		items, err := timeline.Build(result.Matches)
		if err != nil {
			return err
		}
		result.Summary = timeline.Summarize(items, len(segments), duration)
		return nil
	})
	if err != nil || req.PlanOnly {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	err = p.stage(ctx, result.Metrics, StageRender, func(ctx context.Context) error {
		return p.deps.Renderer.Render(ctx, result.Summary.Timeline, req.AudioPath, style, req.OutputPath)
	})
	if err != nil {
		return err
	}
	result.VideoPath = req.OutputPath
	return nil
}

// transcribe runs the backend and the duration probe as two tasks and joins
// them before normalizing the segments.
func (p *Pipeline) transcribe(ctx context.Context, logger *slog.Logger, audioPath, workDir string, extractor *keywords.Extractor, result *Result) ([]transcription.Segment, float64, error) {
	transcriber, err := p.deps.Transcribers(ctx, workDir)
	if err != nil {
		return nil, 0, err
	}
	defer closeTranscriber(transcriber, logger)
	result.Transcriber = transcriber.Name()

	var raw []transcription.Segment
	var duration float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = transcriber.Transcribe(gctx, audioPath)
		return err
	})
	g.Go(func() error {
		var err error
		duration, err = p.deps.Probe(gctx, audioPath)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, err
	}

	segments := transcription.Normalize(raw, duration, extractor)
	if len(segments) == 0 {
		return nil, 0, services.Wrap(services.ErrValidation, StageTranscription, "transcribe",
			"transcription produced no segments", nil)
	}
	result.Metrics.SegmentsTotal.Add(float64(len(segments)))
	logger.Info("narration transcribed",
		logging.String("backend", transcriber.Name()),
		logging.Int("raw_segments", len(raw)),
		logging.Int("segments", len(segments)),
		logging.Float64("duration_seconds", duration),
	)
	return segments, duration, nil
}

// stage wraps fn with the start/complete log pair and the duration metric.
func (p *Pipeline) stage(ctx context.Context, m *metrics.Metrics, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	stageLogger := logging.WithContext(ctx, p.logger)
	stageStart := time.Now()
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	err := fn(ctx)
	elapsed := time.Since(stageStart)
	m.ObserveStage(name, elapsed.Seconds())
	if err != nil {
		if services.IsCanceled(err) {
			stageLogger.Debug("stage interrupted", logging.Duration("stage_duration", elapsed))
		}
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

func (p *Pipeline) prepareRequest(req Request, runID string) (Request, error) {
	req.AudioPath = strings.TrimSpace(req.AudioPath)
	req.ImagesDir = strings.TrimSpace(req.ImagesDir)
	if req.AudioPath == "" {
		return req, services.Wrap(services.ErrValidation, "pipeline", "validate", "audio path required", nil)
	}
	if req.ImagesDir == "" {
		return req, services.Wrap(services.ErrValidation, "pipeline", "validate", "images directory required", nil)
	}
	info, err := os.Stat(req.AudioPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return req, services.Wrap(services.ErrNotFound, "pipeline", "validate",
			fmt.Sprintf("audio file %q does not exist", req.AudioPath), nil)
	case err != nil:
		return req, services.Wrap(services.ErrValidation, "pipeline", "validate", "stat audio file", err)
	case info.IsDir():
		return req, services.Wrap(services.ErrValidation, "pipeline", "validate",
			fmt.Sprintf("audio path %q is a directory", req.AudioPath), nil)
	}
	if req.PlanOnly {
		return req, nil
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		req.OutputPath = filepath.Join(p.cfg.Paths.OutputDir, OutputName(runID))
	}
	abs, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return req, services.Wrap(services.ErrValidation, "pipeline", "validate", "resolve output path", err)
	}
	req.OutputPath = abs
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return req, services.Wrap(services.ErrConfiguration, "pipeline", "validate", "create output directory", err)
	}
	return req, nil
}

// OutputName returns the generated file name for a run.
func OutputName(runID string) string {
	short := strings.ReplaceAll(runID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return "story_video_" + short + ".mp4"
}

func (p *Pipeline) journalBegin(ctx context.Context, logger *slog.Logger, req Request, runID string, style render.Style, started time.Time) {
	if p.deps.History == nil {
		return
	}
	err := p.deps.History.Begin(context.WithoutCancel(ctx), history.Run{
		ID:         runID,
		AudioPath:  req.AudioPath,
		ImagesDir:  req.ImagesDir,
		OutputPath: req.OutputPath,
		Style:      string(style),
		StartedAt:  started,
	})
	if err != nil {
		logger.Warn("failed to journal run start", logging.Error(err))
	}
}

func (p *Pipeline) journalFinish(ctx context.Context, logger *slog.Logger, runID string, result *Result, runErr error) {
	if p.deps.History == nil {
		return
	}
	err := p.deps.History.Finish(context.WithoutCancel(ctx), runID, history.Outcome{
		Err:               runErr,
		SegmentCount:      result.Summary.SegmentCount,
		ImagesUsed:        result.Summary.ImagesUsed,
		UniqueImages:      result.Summary.UniqueImages,
		OracleAccepted:    result.Stats.OracleAccepted,
		Fallbacks:         result.Stats.Fallbacks,
		AverageConfidence: result.Summary.AverageConfidence,
		DurationSeconds:   result.Summary.Duration,
	})
	if err != nil {
		logger.Warn("failed to journal run outcome", logging.Error(err))
	}
}
