// Package store owns document and page records in SQLite.
//
// A single database file holds every table in the system (documents,
// pages, users, query cache, index stats); other packages create their
// own tables against the shared *sql.DB, following the schema-init
// function convention.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
	"github.com/ranjeet229/KnowledgeScout/internal/pages"
)

// Store is the SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and initializes the
// document schema. An empty path opens an in-memory database for tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL must be set via PRAGMA statements; DSN parameters are not
	// reliable with modernc.org/sqlite.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	// The in-memory database must stay on a single connection or each
	// pooled connection sees its own empty database.
	if path == "" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		filename    TEXT NOT NULL DEFAULT '',
		filepath    TEXT NOT NULL DEFAULT '',
		content     TEXT NOT NULL,
		owner_id    TEXT NOT NULL,
		is_private  INTEGER NOT NULL DEFAULT 0,
		share_token TEXT UNIQUE,
		size        INTEGER NOT NULL DEFAULT 0,
		uploaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_uploaded ON documents(uploaded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id);

	CREATE TABLE IF NOT EXISTS doc_pages (
		doc_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		page_number INTEGER NOT NULL,
		content     TEXT NOT NULL,
		PRIMARY KEY (doc_id, page_number)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create document schema: %w", err)
	}
	return nil
}

// DB exposes the shared database handle for sibling stores
// (users, query cache, index stats).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists a document and its pages in one transaction.
func (s *Store) Insert(ctx context.Context, doc *Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kerr.Storage("begin insert", err)
	}
	defer func() { _ = tx.Rollback() }()

	var shareToken any
	if doc.IsPrivate {
		shareToken = doc.ShareToken
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, filename, filepath, content, owner_id, is_private, share_token, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Filename, doc.FilePath, doc.Content, doc.OwnerID,
		boolToInt(doc.IsPrivate), shareToken, doc.Size, doc.UploadedAt.UnixMilli())
	if err != nil {
		return kerr.Storage("insert document", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO doc_pages (doc_id, page_number, content) VALUES (?, ?, ?)
	`)
	if err != nil {
		return kerr.Storage("prepare page insert", err)
	}
	defer stmt.Close()

	for _, p := range doc.Pages {
		if _, err := stmt.ExecContext(ctx, doc.ID, p.Number, p.Content); err != nil {
			return kerr.Storage("insert page", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return kerr.Storage("commit insert", err)
	}
	return nil
}

// Get loads a document with its pages. Returns a NotFound error when no
// document has the given id; visibility is the caller's concern.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	doc, err := s.scanDocument(s.db.QueryRowContext(ctx, `
		SELECT id, title, filename, filepath, content, owner_id, is_private, share_token, size, uploaded_at
		FROM documents WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, kerr.NotFound("document not found")
	}
	if err != nil {
		return nil, kerr.Storage("get document", err)
	}

	if err := s.loadPages(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns summaries of documents visible to callerID,
// newest-upload-first, along with the total visible count.
// An empty callerID lists public documents only.
func (s *Store) List(ctx context.Context, callerID string, limit, offset int) ([]Summary, int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.title, d.filename, d.owner_id, d.is_private, d.size, d.uploaded_at,
		       (SELECT COUNT(*) FROM doc_pages p WHERE p.doc_id = d.id) AS page_count
		FROM documents d
		WHERE d.is_private = 0 OR (? != '' AND d.owner_id = ?)
		ORDER BY d.uploaded_at DESC, d.rowid DESC
		LIMIT ? OFFSET ?
	`, callerID, callerID, limit, offset)
	if err != nil {
		return nil, 0, kerr.Storage("list documents", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var isPrivate int
		var uploadedAt int64
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Filename, &sum.OwnerID,
			&isPrivate, &sum.Size, &uploadedAt, &sum.PageCount); err != nil {
			return nil, 0, kerr.Storage("scan summary", err)
		}
		sum.IsPrivate = isPrivate != 0
		sum.UploadedAt = time.UnixMilli(uploadedAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, kerr.Storage("list documents", err)
	}

	var total int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents
		WHERE is_private = 0 OR (? != '' AND owner_id = ?)
	`, callerID, callerID).Scan(&total)
	if err != nil {
		return nil, 0, kerr.Storage("count documents", err)
	}

	return out, total, nil
}

// Visible loads the full documents (with pages) that callerID may see in
// listing context: public documents plus the caller's own. Share-token
// access never applies here, only on direct fetch.
func (s *Store) Visible(ctx context.Context, callerID string) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, filename, filepath, content, owner_id, is_private, share_token, size, uploaded_at
		FROM documents
		WHERE is_private = 0 OR (? != '' AND owner_id = ?)
		ORDER BY uploaded_at DESC, rowid DESC
	`, callerID, callerID)
	if err != nil {
		return nil, kerr.Storage("query visible documents", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := s.scanDocument(rows)
		if err != nil {
			return nil, kerr.Storage("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, kerr.Storage("query visible documents", err)
	}

	for _, doc := range docs {
		if err := s.loadPages(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// CountDocuments returns the total document count across all users.
func (s *Store) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, kerr.Storage("count documents", err)
	}
	return n, nil
}

// CountPages returns the total page count across all documents.
func (s *Store) CountPages(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_pages`).Scan(&n); err != nil {
		return 0, kerr.Storage("count pages", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var isPrivate int
	var shareToken sql.NullString
	var uploadedAt int64

	err := row.Scan(&doc.ID, &doc.Title, &doc.Filename, &doc.FilePath, &doc.Content,
		&doc.OwnerID, &isPrivate, &shareToken, &doc.Size, &uploadedAt)
	if err != nil {
		return nil, err
	}

	doc.IsPrivate = isPrivate != 0
	doc.ShareToken = shareToken.String
	doc.UploadedAt = time.UnixMilli(uploadedAt)
	return &doc, nil
}

func (s *Store) loadPages(ctx context.Context, doc *Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_number, content FROM doc_pages
		WHERE doc_id = ? ORDER BY page_number
	`, doc.ID)
	if err != nil {
		return kerr.Storage("load pages", err)
	}
	defer rows.Close()

	doc.Pages = doc.Pages[:0]
	for rows.Next() {
		var p pages.Page
		if err := rows.Scan(&p.Number, &p.Content); err != nil {
			return kerr.Storage("scan page", err)
		}
		doc.Pages = append(doc.Pages, p)
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
