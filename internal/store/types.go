package store

import (
	"time"

	"github.com/ranjeet229/KnowledgeScout/internal/pages"
)

// Document is a stored document record with its pages.
// Documents are immutable after ingest; only a rebuild-triggered cache
// purge touches related state, never the document itself.
type Document struct {
	// ID is the unique document id.
	ID string

	// Title is the display title (falls back to the filename on upload).
	Title string

	// Filename is the original name of the uploaded file.
	Filename string

	// FilePath is where the uploaded bytes are stored. Empty for
	// documents ingested from raw text.
	FilePath string

	// Content is the raw full text.
	Content string

	// Pages is the ordered page sequence produced by pages.Split.
	Pages []pages.Page

	// OwnerID references the uploading user.
	OwnerID string

	// IsPrivate hides the document from non-owners without a share token.
	IsPrivate bool

	// ShareToken grants read access to this private document.
	// Present if and only if IsPrivate; globally unique among documents.
	ShareToken string

	// Size is the uploaded byte count.
	Size int64

	// UploadedAt is the ingest time.
	UploadedAt time.Time
}

// Summary is the listing view of a document, without content or pages.
type Summary struct {
	ID         string
	Title      string
	Filename   string
	OwnerID    string
	IsPrivate  bool
	Size       int64
	PageCount  int
	UploadedAt time.Time
}
