package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultLocalSize bounds the local tier when no size is configured.
const DefaultLocalSize = 1024

// Local is the process-local cache tier: an LRU whose entries expire
// individually after a fixed TTL from insertion. Lookups never block on
// I/O. Safe for concurrent use.
type Local struct {
	lru *expirable.LRU[string, *Answer]
}

// NewLocal creates a local tier holding up to size entries for ttl each.
func NewLocal(size int, ttl time.Duration) *Local {
	if size <= 0 {
		size = DefaultLocalSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Local{
		lru: expirable.NewLRU[string, *Answer](size, nil, ttl),
	}
}

// Get returns the entry for key, treating expired entries as absent.
func (l *Local) Get(key string) (*Answer, bool) {
	return l.lru.Get(key)
}

// Add inserts an entry; its local expiry clock starts now.
func (l *Local) Add(key string, a *Answer) {
	l.lru.Add(key, a)
}

// Purge drops every entry unconditionally.
func (l *Local) Purge() {
	l.lru.Purge()
}

// Len returns the current entry count, expired entries included until
// the LRU reaps them.
func (l *Local) Len() int {
	return l.lru.Len()
}
