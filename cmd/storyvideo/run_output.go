package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyvideo/internal/matching"
	"storyvideo/internal/storyvideo"
)

func printResults(cmd *cobra.Command, results []*storyvideo.Result, planOnly bool) {
	rep := newReport(cmd.OutOrStdout())
	for i, result := range results {
		if i > 0 {
			rep.blank()
		}
		printResult(rep, result, planOnly)
	}
}

func printResult(rep *report, result *storyvideo.Result, planOnly bool) {
	if planOnly {
		rep.title("Plan " + shortID(result.RunID))
	} else {
		rep.title("Run " + shortID(result.RunID))
	}

	summary := result.Summary
	if result.VideoPath != "" {
		rep.line("Video", verdictNone, result.VideoPath)
	}
	rep.line("Style", verdictNone, string(result.Style))
	rep.line("Transcriber", verdictNone, result.Transcriber)
	rep.line("Narration", verdictNone, formatSeconds(summary.Duration))
	rep.line("Segments", verdictNone, strconv.Itoa(summary.SegmentCount))
	rep.line("Unique images", verdictNone, fmt.Sprintf("%d of %d uses", summary.UniqueImages, summary.ImagesUsed))
	rep.line("Matches", verdictNone, fmt.Sprintf("%d oracle, %d fallback", result.Stats.OracleAccepted, result.Stats.Fallbacks))
	rep.line("Elapsed", verdictNone, result.Elapsed.Round(time.Millisecond).String())
	rep.blank()
	fmt.Fprintln(rep.out, renderMatchTable(result.Matches, summary.AverageConfidence))
}

func renderMatchTable(matches []matching.Result, average float64) string {
	headers := []string{"#", "Start", "End", "Image", "Conf", "Source", "Text"}
	aligns := []columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft, alignLeft}
	rows := make([][]string, 0, len(matches))
	for i, m := range matches {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSeconds(m.Segment.Start),
			formatSeconds(m.Segment.End),
			filepath.Base(m.Image.Path),
			fmt.Sprintf("%.2f", m.Confidence),
			string(m.Source),
			truncate(m.Segment.Text, 48),
		})
	}
	footer := []string{"", "", "", "average", fmt.Sprintf("%.2f", average)}
	return renderTable(headers, rows, aligns, footer)
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.2fs", seconds)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
