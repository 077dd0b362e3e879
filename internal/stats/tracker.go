// Package stats maintains the index statistics record.
//
// One row holds document/page totals, the last rebuild time, and a
// version counter that moves only on rebuild. Ingest refreshes the
// totals with an authoritative recount; it never trusts prior counters
// and never touches the version.
package stats

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/ranjeet229/KnowledgeScout/internal/cache"
	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
)

// Stats is the aggregate index state.
type Stats struct {
	TotalDocuments int64     `json:"totalDocuments"`
	TotalPages     int64     `json:"totalPages"`
	LastRebuilt    time.Time `json:"lastRebuilt"`
	IndexVersion   int64     `json:"indexVersion"`
}

// Tracker owns the stats record and the rebuild operation.
type Tracker struct {
	db    *sql.DB
	local *cache.Local

	// rebuildMu serializes rebuilds so no query observes stats from one
	// rebuild alongside cache entries from another.
	rebuildMu sync.Mutex

	now func() time.Time
}

// InitSchema creates the stats table if it doesn't exist.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS index_stats (
		id              INTEGER PRIMARY KEY CHECK (id = 1),
		total_documents INTEGER NOT NULL DEFAULT 0,
		total_pages     INTEGER NOT NULL DEFAULT 0,
		last_rebuilt    INTEGER NOT NULL,
		index_version   INTEGER NOT NULL DEFAULT 1
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return kerr.Storage("create stats schema", err)
	}
	return nil
}

// New creates a tracker over the shared database. The local cache tier
// is flushed on rebuild; it may be nil in contexts without a cache.
func New(db *sql.DB, local *cache.Local) *Tracker {
	return &Tracker{
		db:    db,
		local: local,
		now:   time.Now,
	}
}

// RecordIngest refreshes the totals after a document ingest, creating
// the stats row lazily. The version counter is left untouched.
func (t *Tracker) RecordIngest(ctx context.Context) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return kerr.Storage("begin stats update", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := t.upsertCounts(ctx, tx, false); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return kerr.Storage("commit stats update", err)
	}
	return nil
}

// Rebuild recounts totals, advances the version, stamps the rebuild
// time, and purges both cache tiers. The persisted-tier purge commits in
// the same transaction as the stats row, so stats and persisted cache
// can never be observed from different rebuild generations; the local
// tier is flushed immediately after commit under the rebuild mutex.
func (t *Tracker) Rebuild(ctx context.Context) (*Stats, error) {
	t.rebuildMu.Lock()
	defer t.rebuildMu.Unlock()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, kerr.Storage("begin rebuild", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := t.upsertCounts(ctx, tx, true); err != nil {
		return nil, err
	}

	// query_cache belongs to the cache package; rebuild is the one
	// operation allowed to clear it, and it must happen atomically with
	// the stats bump.
	if _, err := tx.ExecContext(ctx, `DELETE FROM query_cache`); err != nil {
		return nil, kerr.Storage("purge persisted cache", err)
	}

	stats, err := readStats(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, kerr.Storage("commit rebuild", err)
	}

	if t.local != nil {
		t.local.Purge()
	}
	return stats, nil
}

// Current returns the stats record, lazily initializing it from a fresh
// recount if it has never been created.
func (t *Tracker) Current(ctx context.Context) (*Stats, error) {
	stats, err := readStats(ctx, t.db)
	if err == nil {
		return stats, nil
	}
	if !kerr.HasCode(err, kerr.CodeNotFound) {
		return nil, err
	}

	// First read ever: create the row without bumping the version.
	tx, txErr := t.db.BeginTx(ctx, nil)
	if txErr != nil {
		return nil, kerr.Storage("begin stats init", txErr)
	}
	defer func() { _ = tx.Rollback() }()

	if err := t.upsertCounts(ctx, tx, false); err != nil {
		return nil, err
	}
	stats, err = readStats(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, kerr.Storage("commit stats init", err)
	}
	return stats, nil
}

// upsertCounts recounts documents and pages inside the transaction and
// writes the stats row. bumpVersion distinguishes rebuild from ingest.
func (t *Tracker) upsertCounts(ctx context.Context, tx *sql.Tx, bumpVersion bool) error {
	var totalDocs, totalPages int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&totalDocs); err != nil {
		return kerr.Storage("recount documents", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_pages`).Scan(&totalPages); err != nil {
		return kerr.Storage("recount pages", err)
	}

	nowMillis := t.now().UnixMilli()
	var err error
	if bumpVersion {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO index_stats (id, total_documents, total_pages, last_rebuilt, index_version)
			VALUES (1, ?, ?, ?, 2)
			ON CONFLICT(id) DO UPDATE SET
				total_documents = excluded.total_documents,
				total_pages     = excluded.total_pages,
				last_rebuilt    = excluded.last_rebuilt,
				index_version   = index_version + 1
		`, totalDocs, totalPages, nowMillis)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO index_stats (id, total_documents, total_pages, last_rebuilt, index_version)
			VALUES (1, ?, ?, ?, 1)
			ON CONFLICT(id) DO UPDATE SET
				total_documents = excluded.total_documents,
				total_pages     = excluded.total_pages
		`, totalDocs, totalPages, nowMillis)
	}
	if err != nil {
		return kerr.Storage("write stats row", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readStats(ctx context.Context, q queryRower) (*Stats, error) {
	var s Stats
	var lastRebuilt int64
	err := q.QueryRowContext(ctx, `
		SELECT total_documents, total_pages, last_rebuilt, index_version
		FROM index_stats WHERE id = 1
	`).Scan(&s.TotalDocuments, &s.TotalPages, &lastRebuilt, &s.IndexVersion)
	if err == sql.ErrNoRows {
		return nil, kerr.NotFound("stats record not found")
	}
	if err != nil {
		return nil, kerr.Storage("read stats", err)
	}
	s.LastRebuilt = time.UnixMilli(lastRebuilt)
	return &s, nil
}
