// Package pages splits raw document text into fixed-size pages.
//
// The segmentation is deterministic and content-independent: 30-line
// blocks numbered by position, not semantic page boundaries. Search
// results and stored documents both rely on this exact layout, so the
// policy must not change without reindexing every document.
package pages

import "strings"

// LinesPerPage is the fixed page height in lines.
const LinesPerPage = 30

// Page is a fixed-size chunk of a document's text.
type Page struct {
	// Number is the 1-based page number, unique within the document.
	Number int
	// Content is the page text without a trailing newline.
	Content string
}

// Split chunks raw text into pages of LinesPerPage lines each.
//
// Page numbers are assigned per block position before blank blocks are
// dropped, so a fully blank block leaves a numbering gap. If every block
// is blank, a single page numbered 1 holding the full raw text is
// returned; a document always has at least one page.
func Split(raw string) []Page {
	lines := strings.Split(raw, "\n")

	var out []Page
	for i := 0; i < len(lines); i += LinesPerPage {
		end := i + LinesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		content := strings.Join(lines[i:end], "\n")
		if strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, Page{
			Number:  i/LinesPerPage + 1,
			Content: content,
		})
	}

	if len(out) == 0 {
		return []Page{{Number: 1, Content: raw}}
	}
	return out
}
