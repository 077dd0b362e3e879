package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ranjeet229/KnowledgeScout/internal/config"
	statspkg "github.com/ranjeet229/KnowledgeScout/internal/stats"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

func newStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long:  `Print document and page totals, the last rebuild time, and the index version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, asJSON bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Storage.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := statspkg.InitSchema(st.DB()); err != nil {
		return err
	}

	tracker := statspkg.New(st.DB(), nil)
	current, err := tracker.Current(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(current)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents:     %d\n", current.TotalDocuments)
	fmt.Fprintf(out, "Pages:         %d\n", current.TotalPages)
	fmt.Fprintf(out, "Index version: %d\n", current.IndexVersion)
	fmt.Fprintf(out, "Last rebuilt:  %s\n", current.LastRebuilt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
