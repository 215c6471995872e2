package main

import (
	"context"

	"github.com/FranksOps/seoscope/internal/metrics"
	"github.com/FranksOps/seoscope/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Metrics.Port > 0 {
				ms := metrics.Start(a.cfg.Metrics.Port, a.logger)
				defer ms.Stop(context.Background())
			}

			srv := server.New(a.pipeline, a.store, scanTimeout(a.cfg), a.logger)
			return srv.ListenAndServe(cmd.Context(), a.cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Int("metrics-port", 0, "Serve /metrics on a separate port (0 disables)")
	_ = g.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = g.v.BindPFlag("metrics.port", cmd.Flags().Lookup("metrics-port"))
	return cmd
}
