// Package search scans visible document pages for a query term and
// returns ranked snippet references.
//
// Ranking is an exact contract: the score of a page is the number of
// non-overlapping case-insensitive occurrences of the query treated as a
// literal string, and ties keep encounter order. The corpus is bounded
// and in-memory-sized, so a linear scan is the whole index; anything
// fancier (FTS, inverted index) would have to reproduce these scores and
// snippets byte for byte.
package search

// Reference is a single search hit: a page with its score and snippet.
type Reference struct {
	// DocID identifies the matched document.
	DocID string `json:"docId"`

	// DocTitle is the matched document's title.
	DocTitle string `json:"docTitle"`

	// Page is the 1-based page number within the document.
	Page int `json:"page"`

	// Snippet is a bounded excerpt around the first match, wrapped in
	// ellipsis markers on both sides.
	Snippet string `json:"snippet"`

	// Relevance is the occurrence count of the query within the page.
	Relevance int `json:"relevance"`
}

// Options configures a search.
type Options struct {
	// Limit is the maximum number of references returned.
	// Values below 1 are clamped to 1.
	Limit int

	// CallerID scopes visibility: the caller's own documents plus
	// public ones. Empty means anonymous (public only).
	CallerID string
}
