package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FranksOps/seoscope/internal/pipeline"
	"github.com/FranksOps/seoscope/internal/report"
	"github.com/spf13/cobra"
)

func scanCmd(g *globals) *cobra.Command {
	var (
		competitors []string
		format      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Score a page and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout(a.cfg))
			defer cancel()

			rec, err := a.pipeline.Scan(ctx, pipeline.Request{URL: args[0], Competitors: competitors})
			if rec == nil {
				return err
			}
			if err != nil {
				a.logger.Warn("scan completed but was not stored", "err", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return report.Write(w, format, rec)
		},
	}

	cmd.Flags().StringSliceVar(&competitors, "competitor", nil, fmt.Sprintf("Competitor URL to compare against (repeatable, at most %d)", pipeline.MaxCompetitors))
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Report format ("+strings.Join(report.Formats, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	return cmd
}
