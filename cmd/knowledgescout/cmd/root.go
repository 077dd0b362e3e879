// Package cmd provides the CLI commands for KnowledgeScout.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ranjeet229/KnowledgeScout/pkg/version"
)

// configPath is the --config persistent flag value.
var configPath string

// NewRootCmd creates the root command for the knowledgescout CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledgescout",
		Short: "Document search-and-answer server",
		Long: `KnowledgeScout lets users upload text documents, splits them into
pages, and answers free-text queries with ranked snippet references
and a synthesized summary, backed by a two-tier result cache.

Run 'knowledgescout serve' to start the HTTP API.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("knowledgescout version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./knowledgescout.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command with signal-aware context cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
