package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storyvideo/internal/history"
)

type historyRun struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	FailureKind       string  `json:"failure_kind,omitempty"`
	Error             string  `json:"error,omitempty"`
	AudioPath         string  `json:"audio_path"`
	OutputPath        string  `json:"output_path,omitempty"`
	Style             string  `json:"style"`
	Segments          int     `json:"segments"`
	UniqueImages      int     `json:"unique_images"`
	OracleAccepted    int     `json:"oracle_accepted"`
	Fallbacks         int     `json:"fallbacks"`
	AverageConfidence float64 `json:"average_confidence"`
	DurationSeconds   float64 `json:"duration_seconds"`
	StartedAt         string  `json:"started_at"`
	ElapsedSeconds    float64 `json:"elapsed_seconds,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	var repair bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			out := cmd.OutOrStdout()
			if store == nil {
				fmt.Fprintln(out, "Run history is disabled (history.enabled = false)")
				return nil
			}
			defer store.Close()

			if repair {
				marked, err := store.MarkInterrupted(cmd.Context())
				if err != nil {
					return fmt.Errorf("mark interrupted runs: %w", err)
				}
				fmt.Fprintf(out, "Marked %d interrupted run(s) as failed\n", marked)
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if asJSON {
				payload := make([]historyRun, 0, len(runs))
				for _, run := range runs {
					payload = append(payload, toHistoryRun(run))
				}
				return writeJSON(cmd.OutOrStdout(), payload)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("history stats: %w", err)
			}
			fmt.Fprintln(out, renderHistoryTable(runs, stats))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&repair, "repair", false, "Mark runs left running by a crashed process as failed")
	return cmd
}

func toHistoryRun(run history.Run) historyRun {
	return historyRun{
		ID:                run.ID,
		Status:            string(run.Status),
		FailureKind:       run.FailureKind,
		Error:             run.ErrorMessage,
		AudioPath:         run.AudioPath,
		OutputPath:        run.OutputPath,
		Style:             run.Style,
		Segments:          run.SegmentCount,
		UniqueImages:      run.UniqueImages,
		OracleAccepted:    run.OracleAccepted,
		Fallbacks:         run.Fallbacks,
		AverageConfidence: run.AverageConfidence,
		DurationSeconds:   run.DurationSeconds,
		StartedAt:         run.StartedAt.Format(time.RFC3339),
		ElapsedSeconds:    run.Elapsed().Seconds(),
	}
}

func renderHistoryTable(runs []history.Run, stats map[history.Status]int) string {
	headers := []string{"ID", "Started", "Status", "Audio", "Style", "Segs", "Images", "Conf", "Elapsed"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		if run.FailureKind != "" {
			status += " (" + run.FailureKind + ")"
		}
		elapsed := "-"
		if d := run.Elapsed(); d > 0 {
			elapsed = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			status,
			filepath.Base(run.AudioPath),
			run.Style,
			strconv.Itoa(run.SegmentCount),
			strconv.Itoa(run.UniqueImages),
			fmt.Sprintf("%.2f", run.AverageConfidence),
			elapsed,
		})
	}
	footer := []string{
		"",
		"totals",
		fmt.Sprintf("%d ok, %d failed, %d canceled",
			stats[history.StatusSucceeded], stats[history.StatusFailed], stats[history.StatusCanceled]),
	}
	return renderTable(headers, rows, aligns, footer)
}
