package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
	"github.com/ranjeet229/KnowledgeScout/internal/search"
)

// Persisted is the durable cache tier, an append-only SQLite table.
// Entries are never updated in place; expired rows linger until a
// rebuild deletes the whole table.
type Persisted struct {
	db *sql.DB
}

// InitSchema creates the query cache table if it doesn't exist.
// Called once at startup against the shared database.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_cache (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		query      TEXT NOT NULL,
		answer     TEXT NOT NULL,
		refs       TEXT NOT NULL,
		cached_at  INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_cache_lookup ON query_cache(query, expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return kerr.Storage("create query cache schema", err)
	}
	return nil
}

// NewPersisted creates the persisted tier over the shared database.
func NewPersisted(db *sql.DB) *Persisted {
	return &Persisted{db: db}
}

// Lookup returns the newest unexpired entry for the exact query text.
// The persisted tier is keyed by query text alone; limit and caller
// identity only narrow the local tier.
func (p *Persisted) Lookup(ctx context.Context, query string, now time.Time) (*Answer, bool, error) {
	var (
		answerText string
		refsJSON   string
		cachedAt   int64
		expiresAt  int64
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT answer, refs, cached_at, expires_at
		FROM query_cache
		WHERE query = ? AND expires_at > ?
		ORDER BY id DESC LIMIT 1
	`, query, now.UnixMilli()).Scan(&answerText, &refsJSON, &cachedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kerr.Storage("query cache lookup", err)
	}

	var refs []search.Reference
	if err := json.Unmarshal([]byte(refsJSON), &refs); err != nil {
		return nil, false, kerr.Storage("decode cached references", err)
	}

	return &Answer{
		Query:      query,
		Text:       answerText,
		References: refs,
		CachedAt:   time.UnixMilli(cachedAt),
		ExpiresAt:  time.UnixMilli(expiresAt),
	}, true, nil
}

// Insert appends a cache entry. Failures propagate to the caller;
// masking a persistence failure could hide data loss.
func (p *Persisted) Insert(ctx context.Context, a *Answer) error {
	refs := a.References
	if refs == nil {
		refs = []search.Reference{}
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return kerr.Storage("encode references", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO query_cache (query, answer, refs, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.Query, a.Text, string(refsJSON), a.CachedAt.UnixMilli(), a.ExpiresAt.UnixMilli())
	if err != nil {
		return kerr.Storage("insert cache entry", err)
	}
	return nil
}

// Count returns the number of persisted entries, expired rows included.
func (p *Persisted) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_cache`).Scan(&n); err != nil {
		return 0, kerr.Storage("count cache entries", err)
	}
	return n, nil
}
