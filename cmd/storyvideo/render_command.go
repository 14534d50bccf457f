package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storyvideo/internal/config"
	"storyvideo/internal/logging"
	"storyvideo/internal/preflight"
	"storyvideo/internal/render"
	"storyvideo/internal/services"
	"storyvideo/internal/storyvideo"
)

type runOptions struct {
	imagesDir  string
	audio      []string
	style      string
	resolution string
	output     string
	json       bool
	skipChecks bool
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Transcribe narration, match images, and render the video",
		Long: "Render builds one video per --audio file from the images under --images.\n" +
			"Several narrations render concurrently, up to workflow.max_concurrent_runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStories(cmd, ctx, opts, false)
		},
	}

	cmd.Flags().StringVarP(&opts.imagesDir, "images", "i", "", "Directory of candidate images")
	cmd.Flags().StringArrayVarP(&opts.audio, "audio", "a", nil, "Narration audio file (repeatable)")
	cmd.Flags().StringVarP(&opts.style, "style", "s", "", fmt.Sprintf("Visual style (%s)", styleNames()))
	cmd.Flags().StringVar(&opts.resolution, "resolution", "", "Output canvas as WIDTHxHEIGHT")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output video path (single narration only)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the image timeline without rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.skipChecks = true
			return runStories(cmd, ctx, opts, true)
		},
	}

	cmd.Flags().StringVarP(&opts.imagesDir, "images", "i", "", "Directory of candidate images")
	cmd.Flags().StringArrayVarP(&opts.audio, "audio", "a", nil, "Narration audio file (repeatable)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	return cmd
}

func (o runOptions) validate() error {
	if strings.TrimSpace(o.imagesDir) == "" {
		return errors.New("--images is required")
	}
	if len(o.audio) == 0 {
		return errors.New("--audio is required")
	}
	if strings.TrimSpace(o.output) != "" && len(o.audio) > 1 {
		return errors.New("--output cannot be combined with more than one --audio")
	}
	return nil
}

func runStories(cmd *cobra.Command, ctx *commandContext, opts runOptions, planOnly bool) error {
	if err := opts.validate(); err != nil {
		return err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := applyResolution(cfg, opts.resolution); err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	if opts.style != "" && render.ParseStyle(opts.style) == render.StyleDefault &&
		!strings.EqualFold(strings.TrimSpace(opts.style), string(render.StyleDefault)) {
		logger.Warn("unknown style; using default",
			logging.String("style", opts.style),
			logging.String(logging.FieldEventType, "style_fallback"),
		)
	}

	if !opts.skipChecks {
		if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
			return services.Wrap(services.ErrConfiguration, "preflight", "run checks",
				preflight.Summarize(failed), nil)
		}
	}

	store, err := ctx.openHistory()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	pipeline := storyvideo.NewPipeline(cfg, logger, storyvideo.Dependencies{
		Oracle:  storyvideo.NewOracle(cfg),
		History: store,
	})
	runner := storyvideo.NewRunner(pipeline, cfg.Workflow.MaxConcurrentRuns)

	jobs := make([]*storyvideo.Job, 0, len(opts.audio))
	for _, audio := range opts.audio {
		jobs = append(jobs, runner.Submit(cmd.Context(), storyvideo.Request{
			AudioPath:  audio,
			ImagesDir:  opts.imagesDir,
			OutputPath: opts.output,
			Style:      opts.style,
			PlanOnly:   planOnly,
		}))
	}
	runner.Wait()

	results := make([]*storyvideo.Result, 0, len(jobs))
	var errs []error
	for i, job := range jobs {
		result, err := job.Wait()
		if err != nil {
			if len(jobs) > 1 {
				err = fmt.Errorf("%s: %w", opts.audio[i], err)
			}
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}

	if opts.json {
		var payload any = results
		if len(results) == 1 && len(jobs) == 1 {
			payload = results[0]
		}
		if len(results) > 0 {
			if err := writeJSON(cmd.OutOrStdout(), payload); err != nil {
				return err
			}
		}
	} else {
		printResults(cmd, results, planOnly)
	}
	return errors.Join(errs...)
}

func applyResolution(cfg *config.Config, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	width, height, err := parseResolution(value)
	if err != nil {
		return err
	}
	cfg.Render.Width = width
	cfg.Render.Height = height
	return nil
}

// parseResolution accepts WIDTHxHEIGHT with positive even dimensions, which
// yuv420p output requires.
func parseResolution(value string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(value), "x")
	if !ok {
		return 0, 0, fmt.Errorf("resolution %q must look like 1080x1920", value)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution width %q: %w", w, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution height %q: %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("resolution %q must be positive", value)
	}
	if width%2 != 0 || height%2 != 0 {
		return 0, 0, fmt.Errorf("resolution %q must use even dimensions", value)
	}
	return width, height, nil
}

func styleNames() string {
	styles := render.Styles()
	names := make([]string, 0, len(styles))
	for _, style := range styles {
		names = append(names, string(style))
	}
	return strings.Join(names, ", ")
}
