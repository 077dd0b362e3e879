package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ranjeet229/KnowledgeScout/internal/auth"
	"github.com/ranjeet229/KnowledgeScout/internal/cache"
	"github.com/ranjeet229/KnowledgeScout/internal/config"
	"github.com/ranjeet229/KnowledgeScout/internal/ingest"
	"github.com/ranjeet229/KnowledgeScout/internal/logging"
	"github.com/ranjeet229/KnowledgeScout/internal/query"
	"github.com/ranjeet229/KnowledgeScout/internal/search"
	"github.com/ranjeet229/KnowledgeScout/internal/server"
	"github.com/ranjeet229/KnowledgeScout/internal/stats"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the KnowledgeScout HTTP API.

Serves document upload, listing and fetch, the /api/ask query endpoint
backed by the two-tier result cache, and the index stats/rebuild
operations. Requires auth.jwt_secret to be configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set it in the config file or KSCOUT_JWT_SECRET)")
	}

	cleanup, err := logging.SetupDefault(logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.FilePath,
		WriteToStderr: cfg.Logging.Stderr,
	})
	if err != nil {
		return err
	}
	defer cleanup()
	logger := slog.Default()

	// One serving process per data directory; a second one would race
	// the rebuild purge.
	lock := store.NewDirLock(cfg.Storage.DataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("data directory %s is in use by another knowledgescout process", cfg.Storage.DataDir)
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

	local := cache.NewLocal(cfg.Cache.LocalSize, cfg.Cache.TTL)
	persisted := cache.NewPersisted(st.DB())
	tracker := stats.New(st.DB(), local)

	users := auth.NewUserStore(st.DB())
	authSvc := auth.NewService(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	ingestSvc := ingest.NewService(st, tracker, cfg.Storage.UploadsDir, cfg.Ingest.MaxUploadBytes(), logger)
	engine := search.New(st, logger)
	querySvc := query.New(engine, local, persisted, cfg.Cache.TTL, logger)

	srv := server.New(cfg, authSvc, ingestSvc, st, querySvc, tracker, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	if cfg.Ingest.WatchDir != "" {
		watcher := ingest.NewWatcher(ingestSvc, cfg.Ingest.WatchDir, cfg.Ingest.WatchOwner, logger)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	logger.Info("knowledgescout_started",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("db", cfg.Storage.DatabasePath()))
	return g.Wait()
}
