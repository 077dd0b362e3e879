// Package cache implements the two-tier result cache.
//
// The process-local tier is an expiring LRU and exists purely as a
// latency optimization over the persisted tier; the two are not
// transactionally linked. After a restart the local tier starts empty
// while the persisted tier still answers within the freshness window,
// and that staleness model is intended, not a consistency bug to fix.
package cache

import (
	"fmt"
	"time"

	"github.com/ranjeet229/KnowledgeScout/internal/search"
)

// DefaultTTL is the freshness window for cached answers.
const DefaultTTL = 60 * time.Second

// Answer is a cached query result.
type Answer struct {
	// Query is the exact query text.
	Query string `json:"query"`

	// Text is the synthesized answer.
	Text string `json:"answer"`

	// References is the ranked reference list.
	References []search.Reference `json:"references"`

	// CachedAt is the creation time.
	CachedAt time.Time `json:"-"`

	// ExpiresAt is CachedAt plus the TTL; the entry is usable only
	// while now < ExpiresAt.
	ExpiresAt time.Time `json:"-"`
}

// Key builds the local-tier cache key. Authenticated callers get their
// own namespace; every anonymous caller shares the "public" bucket for a
// given query/limit pair. That coarse anonymous bucket is a documented
// precision limit, kept as-is.
func Key(query string, limit int, callerID string) string {
	caller := callerID
	if caller == "" {
		caller = "public"
	}
	return fmt.Sprintf("query:%s:%d:%s", query, limit, caller)
}
