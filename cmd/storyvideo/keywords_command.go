package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storyvideo/internal/keywords"
)

type keywordRow struct {
	Input    string   `json:"input"`
	Keywords []string `json:"keywords"`
}

func newKeywordsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var fromText bool
	var language string

	cmd := &cobra.Command{
		Use:   "keywords FILE...",
		Short: "Show the keywords extracted from image filenames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lang := cfg.Matching.Language
			if strings.TrimSpace(language) != "" {
				lang = language
			}
			extractor := keywords.New(lang)

			rows := make([]keywordRow, 0, len(args))
			for _, arg := range args {
				row := keywordRow{Input: arg}
				if fromText {
					row.Keywords = extractor.FromText(arg)
				} else {
					row.Keywords = extractor.Extract(filepath.Base(arg))
				}
				if row.Keywords == nil {
					row.Keywords = []string{}
				}
				rows = append(rows, row)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				tableRows = append(tableRows, []string{row.Input, strings.Join(row.Keywords, ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Input", "Keywords"}, tableRows, nil, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&fromText, "text", false, "Treat arguments as narration text instead of filenames")
	cmd.Flags().StringVar(&language, "language", "", "Stop-word language (defaults to matching.language)")
	return cmd
}
