package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

// snippetRadius is the number of bytes kept on each side of a match.
const snippetRadius = 50

// DefaultLimit is the reference count used when the caller supplies none.
const DefaultLimit = 5

// Engine ranks document pages against free-text queries.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a search engine over the given document store.
func New(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, logger: logger}
}

// Search scans every page visible to callerID and returns up to
// opts.Limit references, sorted by descending relevance with ties in
// encounter order. An empty query fails before any scan.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Reference, error) {
	if query == "" {
		return nil, kerr.New(kerr.CodeQueryEmpty, "query is required")
	}

	limit := opts.Limit
	if limit < 1 {
		limit = 1
	}

	start := time.Now()
	docs, err := e.store.Visible(ctx, opts.CallerID)
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var refs []Reference
	for _, doc := range docs {
		for _, page := range doc.Pages {
			matchStart, matchEnd, ok := matchRange(page.Content, queryLower)
			if !ok {
				continue
			}
			refs = append(refs, Reference{
				DocID:     doc.ID,
				DocTitle:  doc.Title,
				Page:      page.Number,
				Snippet:   snippet(page.Content, matchStart, matchEnd),
				Relevance: strings.Count(strings.ToLower(page.Content), queryLower),
			})
		}
	}

	// Stable: equal scores keep document/page encounter order.
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Relevance > refs[j].Relevance
	})
	if len(refs) > limit {
		refs = refs[:limit]
	}

	e.logger.Debug("search_completed",
		slog.String("query", query),
		slog.Int("results", len(refs)),
		slog.Duration("elapsed", time.Since(start)))

	return refs, nil
}

// matchRange locates the first substring of content whose lowercase
// form equals queryLower, scanning rune by rune. The returned byte
// range is valid in content itself; lowercasing can change rune byte
// lengths, so offsets found in a lowered copy must never be used to
// slice the original.
func matchRange(content, queryLower string) (start, end int, ok bool) {
	for i := 0; i < len(content); {
		if n, match := foldPrefix(content[i:], queryLower); match {
			return i, i + n, true
		}
		_, size := utf8.DecodeRuneInString(content[i:])
		i += size
	}
	return 0, 0, false
}

// foldPrefix reports whether lowercasing a prefix of s yields exactly
// target, returning that prefix's byte length in s. The per-rune
// mapping is the one strings.ToLower applies, so a hit here implies the
// lowered page contains target.
func foldPrefix(s, target string) (int, bool) {
	consumed := 0
	i := 0
	for consumed < len(target) {
		if i >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], unicode.ToLower(r))
		if consumed+n > len(target) || string(buf[:n]) != target[consumed:consumed+n] {
			return 0, false
		}
		consumed += n
		i += size
	}
	return i, true
}

// snippet extracts up to snippetRadius bytes on each side of the match
// at [matchStart, matchEnd), clamped to the page bounds with the window
// edges snapped to rune boundaries, and wraps the window in ellipsis
// markers regardless of whether it was truncated.
func snippet(content string, matchStart, matchEnd int) string {
	start := matchStart - snippetRadius
	if start < 0 {
		start = 0
	}
	end := matchEnd + snippetRadius
	if end > len(content) {
		end = len(content)
	}
	for start < matchStart && !utf8.RuneStart(content[start]) {
		start++
	}
	for end > matchEnd && end < len(content) && !utf8.RuneStart(content[end]) {
		end--
	}
	return "..." + content[start:end] + "..."
}
