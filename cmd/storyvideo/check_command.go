package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyvideo/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify binaries, directories, and the matching LLM are ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rep := newReport(cmd.OutOrStdout())
			results := preflight.RunAll(cmd.Context(), cfg)
			rep.title("Preflight")
			for _, r := range results {
				v := verdictPass
				if !r.Passed {
					v = verdictFail
				}
				rep.line(r.Name, v, r.Detail)
			}
			if !cfg.LLM.Enabled {
				rep.line("Matching LLM", verdictSkip, "disabled (keyword fallback only)")
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}
