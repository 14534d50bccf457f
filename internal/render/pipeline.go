package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyvideo/internal/config"
	"storyvideo/internal/fileutil"
	"storyvideo/internal/logging"
	"storyvideo/internal/services"
	"storyvideo/internal/timeline"
)

// Pipeline renders timelines with ffmpeg.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	run    services.CommandRunner
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCommandRunner replaces the ffmpeg executor, mainly for tests.
func WithCommandRunner(runner services.CommandRunner) Option {
	return func(p *Pipeline) {
		if runner != nil {
			p.run = runner
		}
	}
}

// NewPipeline builds a pipeline from the render section of cfg.
func NewPipeline(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "render"),
		run:    services.RunCommand,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render produces outputPath from items and the narration at audioPath.
// Any unreadable image or non-positive duration aborts the run. The file at
// outputPath only appears once encoding has succeeded.
func (p *Pipeline) Render(ctx context.Context, items []timeline.Item, audioPath string, style Style, outputPath string) error {
	if len(items) == 0 {
		return services.Wrap(services.ErrRender, "render", "validate", "timeline is empty", nil)
	}
	for i, item := range items {
		if !(item.Duration() > 0) {
			return services.Wrap(services.ErrRender, "render", "validate",
				fmt.Sprintf("segment %d has non-positive duration %.3fs", i, item.Duration()), nil)
		}
	}
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrValidation, "render", "validate", "output path required", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := logging.WithContext(ctx, p.logger)
	workDir, err := os.MkdirTemp(p.cfg.Paths.WorkDir, "render-")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "render", "prepare", "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	started := time.Now()
	clips, err := p.prepareClips(ctx, items, style, workDir)
	if err != nil {
		return err
	}
	logger.Info("frames prepared",
		logging.Int("clips", len(clips)),
		logging.String("style", string(style)),
		logging.Duration("elapsed", time.Since(started)),
	)

	tmpPath, err := fileutil.TempSibling(outputPath)
	if err != nil {
		return services.Wrap(services.ErrRender, "render", "prepare", "create temporary output", err)
	}
	promoted := false
	defer func() {
		if !promoted {
			if err := fileutil.RemoveQuietly(tmpPath); err != nil {
				logger.Warn("failed to remove partial output", logging.String("path", tmpPath), logging.Error(err))
			}
		}
	}()

	args := buildArgs(clips, audioPath, tmpPath, p.settings())
	logger.Info("launching ffmpeg render",
		logging.String("output", outputPath),
		logging.Int("clips", len(clips)),
		logging.Int("width", p.cfg.Render.Width),
		logging.Int("height", p.cfg.Render.Height),
	)
	encodeStart := time.Now()
	if err := p.run(ctx, p.cfg.FFmpegBinary(), args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrRender, "render", "ffmpeg", "encode failed", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if info, err := os.Stat(tmpPath); err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrRender, "render", "verify", "ffmpeg produced no output", err)
	}
	if err := fileutil.Promote(tmpPath, outputPath); err != nil {
		return services.Wrap(services.ErrRender, "render", "promote", "publish output", err)
	}
	promoted = true
	logger.Info("render complete",
		logging.String("output", outputPath),
		logging.Duration("encode_time", time.Since(encodeStart)),
	)
	return nil
}

// prepareClips writes one cover-cropped PNG per distinct image and pairs each
// timeline item with its effect.
func (p *Pipeline) prepareClips(ctx context.Context, items []timeline.Item, style Style, workDir string) ([]Clip, error) {
	frames := make(map[string]string, len(items))
	counts := frameCounts(items, p.cfg.Render.FPS)
	clips := make([]Clip, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, ok := frames[item.ImagePath]
		if !ok {
			img, err := LoadImage(item.ImagePath)
			if err != nil {
				return nil, services.Wrap(services.ErrRender, "render", "load image",
					fmt.Sprintf("cannot open %s", filepath.Base(item.ImagePath)), err)
			}
			frame = filepath.Join(workDir, fmt.Sprintf("frame_%04d.png", len(frames)))
			if err := writePNG(frame, FitCover(img, p.cfg.Render.Width, p.cfg.Render.Height)); err != nil {
				return nil, services.Wrap(services.ErrRender, "render", "write frame", frame, err)
			}
			frames[item.ImagePath] = frame
		}
		clips[i] = Clip{
			Frame:  frame,
			Frames: counts[i],
			Effect: EffectFor(style, item.Duration(), i),
		}
	}
	return clips, nil
}

func (p *Pipeline) settings() encodeSettings {
	r := p.cfg.Render
	return encodeSettings{
		width:      r.Width,
		height:     r.Height,
		fps:        r.FPS,
		videoCodec: r.VideoCodec,
		audioCodec: r.AudioCodec,
		preset:     r.Preset,
		threads:    r.Threads,
	}
}
