// Package main provides the seoscope binary: scan a page, serve the scan API,
// or list stored scans.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/FranksOps/seoscope/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.1.0"
	appName = "seoscope"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// globals are shared by every subcommand.
type globals struct {
	v          *viper.Viper
	configPath string
}

func (g *globals) load() (*config.Config, error) {
	return config.Load(g.v, g.configPath)
}

func rootCmd() *cobra.Command {
	g := &globals{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "SEO and AI-readiness auditor",
		Long: `seoscope scores a web page for search and AI answer-engine readiness.

It scrapes the page, gathers keyword and backlink metrics from the configured
providers (falling back to estimates), discovers the keywords the site can
rank for, and produces a 0-100 score across four pillars with prioritized
recommendations. Competitor URLs are scored the same way and compared.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("storage", "", "Storage driver (sqlite, postgres, json, csv, none)")
	flags.String("dsn", "", "Storage DSN or file path")
	_ = g.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = g.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = g.v.BindPFlag("storage.driver", flags.Lookup("storage"))
	_ = g.v.BindPFlag("storage.dsn", flags.Lookup("dsn"))

	cmd.AddCommand(scanCmd(g), serveCmd(g), historyCmd(g))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}
