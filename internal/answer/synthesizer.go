// Package answer turns ranked references into a summary string.
//
// The synthesis is deliberately non-generative: a fixed template over
// the reference count and the distinct-document count. No model call.
package answer

import (
	"fmt"

	"github.com/ranjeet229/KnowledgeScout/internal/search"
)

// Synthesize builds the human-readable answer for a query and its
// ranked references.
func Synthesize(query string, refs []search.Reference) string {
	if len(refs) == 0 {
		return fmt.Sprintf("No relevant documents found for the query %q.", query)
	}

	return fmt.Sprintf(
		"Found %d relevant reference(s) across %d document(s). The query %q appears in the following contexts.",
		len(refs), distinctDocs(refs), query)
}

func distinctDocs(refs []search.Reference) int {
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		seen[r.DocID] = struct{}{}
	}
	return len(seen)
}
