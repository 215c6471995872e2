package main

import (
	"fmt"
	"time"

	"github.com/FranksOps/seoscope/internal/report"
	"github.com/FranksOps/seoscope/internal/storage"
	"github.com/spf13/cobra"
)

func historyCmd(g *globals) *cobra.Command {
	var (
		filter storage.Filter
		since  time.Duration
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored scans, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if since > 0 {
				t := time.Now().Add(-since)
				filter.Since = &t
			}

			records, err := a.store.Query(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("query scans: %w", err)
			}

			if asJSON {
				return report.WriteJSONList(cmd.OutOrStdout(), records)
			}
			return report.WriteHistory(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().StringVar(&filter.Domain, "domain", "", "Only scans of this domain")
	cmd.Flags().StringVar(&filter.URL, "url", "", "Only scans of this exact URL")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "Maximum scans to list (0 for all)")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Skip this many scans")
	cmd.Flags().DurationVar(&since, "since", 0, "Only scans newer than this, e.g. 72h")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}
