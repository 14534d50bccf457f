package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storyvideo/internal/catalog"
	"storyvideo/internal/keywords"
	"storyvideo/internal/logging"
	"storyvideo/internal/services"
	"storyvideo/internal/transcription"
)

const (
	// AcceptThreshold is the minimum oracle confidence that is trusted.
	AcceptThreshold = 0.3
	// FallbackConfidenceCap bounds the confidence reported for fallback picks.
	FallbackConfidenceCap = 0.5
	// DefaultMaxCandidates bounds the candidate list sent to the oracle.
	DefaultMaxCandidates = 20

	usagePenaltyWeight = 0.5
	baseScore          = 0.3
	keywordWeight      = 0.7
)

// Source records which path produced a match.
type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Result is the image chosen for one segment.
type Result struct {
	Segment    transcription.Segment `json:"segment"`
	Image      catalog.Image         `json:"image"`
	Confidence float64               `json:"confidence"`
	Source     Source                `json:"source"`
}

// Engine matches segments to images. An Engine holds no per-run state and
// may serve concurrent runs; each FindBestMatches call owns its own Ledger.
type Engine struct {
	oracle        Oracle
	maxCandidates int
	oracleTimeout time.Duration
	extractor     *keywords.Extractor
	logger        *slog.Logger
	observer      func(Result)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMaxCandidates caps the candidate list sent to the oracle.
func WithMaxCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCandidates = n
		}
	}
}

// WithOracleTimeout bounds each oracle call.
func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.oracleTimeout = d
	}
}

// WithExtractor sets the text normalization used for keyword containment.
func WithExtractor(extractor *keywords.Extractor) Option {
	return func(e *Engine) {
		if extractor != nil {
			e.extractor = extractor
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver registers a callback invoked after every match.
func WithObserver(fn func(Result)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// NewEngine builds an engine around oracle. A nil oracle sends every segment
// to the fallback scorer.
func NewEngine(oracle Oracle, opts ...Option) *Engine {
	engine := &Engine{
		oracle:        oracle,
		maxCandidates: DefaultMaxCandidates,
		extractor:     keywords.New(keywords.DefaultLanguage),
	}
	for _, opt := range opts {
		opt(engine)
	}
	engine.logger = logging.NewComponentLogger(engine.logger, "matching")
	return engine
}

// FindBestMatches returns exactly one Result per segment, in segment order.
// It fails with ErrValidation when images is empty and otherwise only when
// ctx is done.
func (e *Engine) FindBestMatches(ctx context.Context, segments []transcription.Segment, images []catalog.Image) ([]Result, error) {
	if len(images) == 0 {
		return nil, services.Wrap(services.ErrValidation, "matching", "find best matches", "no images available for matching", nil)
	}
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("matching segments",
		logging.Int("segments", len(segments)),
		logging.Int("images", len(images)),
		logging.Bool("oracle", e.oracle != nil),
	)

	ledger := NewLedger()
	sampler := logging.NewProgressSampler(10)
	results := make([]Result, 0, len(segments))
	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := e.matchSegment(ctx, logger, segment, images, ledger)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ledger.Record(result.Image.Path)
		results = append(results, result)
		if e.observer != nil {
			e.observer(result)
		}
		if percent := float64(i+1) / float64(len(segments)) * 100; sampler.ShouldLog(percent, "matching") {
			logger.Debug("matching progress", logging.Int("done", i+1), logging.Int("total", len(segments)))
		}
	}

	stats := Summarize(results)
	logger.Info("matching complete",
		logging.Int("unique_images", ledger.Unique()),
		logging.Int("total_uses", ledger.Total()),
		logging.Int("oracle_accepted", stats.OracleAccepted),
		logging.Int("fallbacks", stats.Fallbacks),
		logging.Float64("average_confidence", stats.AverageConfidence),
	)
	return results, nil
}

func (e *Engine) matchSegment(ctx context.Context, logger *slog.Logger, segment transcription.Segment, images []catalog.Image, ledger *Ledger) Result {
	candidates := images[:min(e.maxCandidates, len(images))]
	req := Request{SegmentText: segment.Text, Candidates: make([]Candidate, len(candidates))}
	for i, img := range candidates {
		req.Candidates[i] = Candidate{Filename: img.Filename, Keywords: img.Keywords}
	}

	resp, err := consult(ctx, e.oracle, req, e.oracleTimeout)
	reason := ""
	switch {
	case err != nil:
		reason = oracleFailureReason(err)
	case resp.Confidence < AcceptThreshold:
		reason = fmt.Sprintf("low confidence %.2f", resp.Confidence)
	default:
		image := candidates[resp.Index-1]
		logger.Debug("segment matched", logging.Args(
			append(logging.DecisionAttrs("image_match", string(SourceOracle), "oracle confidence above threshold"),
				logging.String("image", image.Filename),
				logging.Float64("confidence", resp.Confidence),
			)...,
		)...)
		return Result{Segment: segment, Image: image, Confidence: resp.Confidence, Source: SourceOracle}
	}

	image, score := e.fallback(segment.Text, images, ledger)
	switch {
	case e.oracle == nil:
	case err != nil && ctx.Err() == nil:
		logging.WarnWithContext(logger, "oracle unavailable, using fallback scorer", "oracle_fallback",
			logging.String("segment", truncate(segment.Text, 40)),
			logging.String("reason", reason),
			logging.String(logging.FieldImpact, "image chosen by keyword and usage score"),
			logging.String(logging.FieldErrorHint, "check the llm endpoint and model"),
		)
	default:
		logger.Debug("oracle result rejected", logging.Args(
			append(logging.DecisionAttrs("image_match", string(SourceFallback), reason),
				logging.String("segment", truncate(segment.Text, 40)),
			)...,
		)...)
	}
	return Result{
		Segment:    segment,
		Image:      image,
		Confidence: min(score, FallbackConfidenceCap),
		Source:     SourceFallback,
	}
}

// fallback scores every image by keyword containment and prior use and
// returns the best one with its raw score. Ties keep catalog order.
func (e *Engine) fallback(text string, images []catalog.Image, ledger *Ledger) (catalog.Image, float64) {
	normalized := e.extractor.Normalize(text)
	best := 0
	bestScore := -1.0
	for i, img := range images {
		score := FallbackScore(normalized, img.Keywords, ledger.Count(img.Path))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return images[best], bestScore
}

// FallbackScore computes usage_penalty * (0.3 + keyword_score * 0.7) for one
// image. text must already be lowercased the same way keywords are.
func FallbackScore(text string, imageKeywords []string, uses int) float64 {
	penalty := 1.0 / (1.0 + float64(uses)*usagePenaltyWeight)
	matched := 0
	for _, kw := range imageKeywords {
		if kw != "" && strings.Contains(text, kw) {
			matched++
		}
	}
	keywordScore := float64(matched) / float64(max(1, len(imageKeywords)))
	return penalty * (baseScore + keywordScore*keywordWeight)
}

func oracleFailureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "oracle timed out"
	case errors.Is(err, context.Canceled):
		return "oracle canceled"
	default:
		return err.Error()
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Stats aggregates a finished match run.
type Stats struct {
	UniqueImages      int
	TotalUses         int
	OracleAccepted    int
	Fallbacks         int
	AverageConfidence float64
}

// Summarize computes Stats over results.
func Summarize(results []Result) Stats {
	var stats Stats
	seen := make(map[string]struct{})
	total := 0.0
	for _, r := range results {
		seen[r.Image.Path] = struct{}{}
		total += r.Confidence
		if r.Source == SourceOracle {
			stats.OracleAccepted++
		} else {
			stats.Fallbacks++
		}
	}
	stats.UniqueImages = len(seen)
	stats.TotalUses = len(results)
	if len(results) > 0 {
		stats.AverageConfidence = total / float64(len(results))
	}
	return stats
}
