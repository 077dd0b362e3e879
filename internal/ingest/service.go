// Package ingest turns uploaded or dropped files into stored documents.
package ingest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	mrand "math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
	"github.com/ranjeet229/KnowledgeScout/internal/pages"
	"github.com/ranjeet229/KnowledgeScout/internal/stats"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

// DefaultMaxUploadBytes caps uploads at 10 MB, matching the API contract.
const DefaultMaxUploadBytes = 10 * 1024 * 1024

// Service ingests documents: persist the upload, split into pages,
// store the record, refresh the stats totals.
type Service struct {
	store      *store.Store
	stats      *stats.Tracker
	uploadsDir string
	maxBytes   int64
	logger     *slog.Logger
}

// NewService creates the ingest service. maxBytes <= 0 uses the default
// 10 MB cap.
func NewService(st *store.Store, tracker *stats.Tracker, uploadsDir string, maxBytes int64, logger *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		stats:      tracker,
		uploadsDir: uploadsDir,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// IngestUpload stores the uploaded bytes under a unique-suffix filename
// and ingests the content as a document owned by ownerID.
func (s *Service) IngestUpload(ctx context.Context, filename string, r io.Reader, title, ownerID string, isPrivate bool) (*store.Document, error) {
	if ownerID == "" {
		return nil, kerr.AuthRequired("Authentication required")
	}
	if filename == "" {
		return nil, kerr.InvalidInput("No file uploaded")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, kerr.Storage("read upload", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, kerr.Newf(kerr.CodeFileTooLarge, "file exceeds %d bytes", s.maxBytes)
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return nil, kerr.Storage("create uploads directory", err)
	}
	stored := fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), mrand.Int63n(1e9), filepath.Base(filename))
	storedPath := filepath.Join(s.uploadsDir, stored)
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return nil, kerr.Storage("store upload", err)
	}

	return s.ingest(ctx, title, filepath.Base(filename), storedPath, ownerID, string(data), int64(len(data)), isPrivate)
}

// IngestText ingests raw text without an uploaded file behind it.
// Used by the CLI and the drop-directory watcher.
func (s *Service) IngestText(ctx context.Context, title, ownerID, raw string, isPrivate bool) (*store.Document, error) {
	if ownerID == "" {
		return nil, kerr.AuthRequired("Authentication required")
	}
	return s.ingest(ctx, title, "", "", ownerID, raw, int64(len(raw)), isPrivate)
}

func (s *Service) ingest(ctx context.Context, title, filename, filePath, ownerID, raw string, size int64, isPrivate bool) (*store.Document, error) {
	if title == "" {
		title = filename
	}
	if title == "" {
		return nil, kerr.InvalidInput("title is required")
	}

	doc := &store.Document{
		ID:         uuid.NewString(),
		Title:      title,
		Filename:   filename,
		FilePath:   filePath,
		Content:    raw,
		Pages:      pages.Split(raw),
		OwnerID:    ownerID,
		IsPrivate:  isPrivate,
		Size:       size,
		UploadedAt: time.Now(),
	}
	if isPrivate {
		token, err := newShareToken()
		if err != nil {
			return nil, err
		}
		doc.ShareToken = token
	}

	if err := s.store.Insert(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.stats.RecordIngest(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("document_ingested",
		slog.String("doc_id", doc.ID),
		slog.String("title", doc.Title),
		slog.Bool("private", doc.IsPrivate),
		slog.Int("pages", len(doc.Pages)))
	return doc, nil
}

// newShareToken generates an unguessable share secret. A UNIQUE
// constraint on the column backs up the generated-once-never-reused
// invariant.
func newShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", kerr.Wrap(kerr.CodeInternal, "generate share token", err)
	}
	return hex.EncodeToString(buf), nil
}
