package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ranjeet229/KnowledgeScout/internal/auth"
	"github.com/ranjeet229/KnowledgeScout/internal/cache"
	"github.com/ranjeet229/KnowledgeScout/internal/config"
	"github.com/ranjeet229/KnowledgeScout/internal/ingest"
	"github.com/ranjeet229/KnowledgeScout/internal/stats"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

// ingestOptions holds CLI flags for ingest.
type ingestOptions struct {
	title   string
	owner   string
	private bool
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a text file into the document store",
		Long: `Ingest a text file directly, without going through the HTTP API.

The file is split into 30-line pages and stored under the given owner.

Examples:
  knowledgescout ingest notes.txt --owner u-123
  knowledgescout ingest report.txt --owner u-123 --title "Q3 report" --private`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Document title (default: file name)")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "Owning user id (required)")
	cmd.Flags().BoolVar(&opts.private, "private", false, "Make the document private with a share token")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, path string, opts ingestOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	lock := store.NewDirLock(cfg.Storage.DataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("data directory is in use; stop the server or ingest over HTTP")
	}
	defer func() { _ = lock.Unlock() }()

	st, err := store.Open(cfg.Storage.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := auth.InitSchema(st.DB()); err != nil {
		return err
	}
	if err := cache.InitSchema(st.DB()); err != nil {
		return err
	}
	if err := stats.InitSchema(st.DB()); err != nil {
		return err
	}

	tracker := stats.New(st.DB(), nil)
	svc := ingest.NewService(st, tracker, cfg.Storage.UploadsDir, cfg.Ingest.MaxUploadBytes(), nil)

	title := opts.title
	if title == "" {
		title = filepath.Base(path)
	}
	doc, err := svc.IngestText(ctx, title, opts.owner, string(data), opts.private)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %q as %s (%d pages)\n", doc.Title, doc.ID, len(doc.Pages))
	if doc.IsPrivate {
		fmt.Fprintf(cmd.OutOrStdout(), "Share token: %s\n", doc.ShareToken)
	}
	return nil
}
