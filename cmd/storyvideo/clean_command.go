package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storyvideo/internal/history"
	"storyvideo/internal/workdir"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var orphans bool
	var list bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove scratch directories left behind by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				dirs, err := workdir.ListDirectories(cfg.Paths.WorkDir)
				if err != nil {
					return fmt.Errorf("list work directories: %w", err)
				}
				if len(dirs) == 0 {
					fmt.Fprintln(out, "No run directories")
					return nil
				}
				rows := make([][]string, 0, len(dirs))
				for _, dir := range dirs {
					rows = append(rows, []string{
						dir.Name,
						dir.ModTime.Local().Format("2006-01-02 15:04"),
						strconv.FormatInt(dir.Size/1024, 10) + " KiB",
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Run", "Modified", "Size"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight}, nil))
				return nil
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var result workdir.CleanResult
			if orphans {
				active, err := activeRunIDs(cmd, ctx)
				if err != nil {
					return err
				}
				result = workdir.CleanOrphaned(cmd.Context(), cfg.Paths.WorkDir, active, logger)
			} else {
				result = workdir.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logger)
			}

			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			fmt.Fprintf(out, "Removed %d run director%s\n", len(result.Removed), pluralY(len(result.Removed)))
			if len(result.Errors) > 0 {
				errs := make([]error, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Errorf("%s: %w", e.Path, e.Error))
				}
				return errors.Join(errs...)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove run directories not modified for this long")
	cmd.Flags().BoolVar(&orphans, "orphans", false, "Remove every run directory without a running journal entry")
	cmd.Flags().BoolVar(&list, "list", false, "List run directories instead of removing them")
	return cmd
}

func activeRunIDs(cmd *cobra.Command, ctx *commandContext) (map[string]struct{}, error) {
	store, err := ctx.openHistory()
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if store == nil {
		return nil, errors.New("--orphans needs history.enabled to tell live runs apart")
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), 0)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	active := make(map[string]struct{})
	for _, run := range runs {
		if run.Status == history.StatusRunning {
			active[run.ID] = struct{}{}
		}
	}
	return active, nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
