// Package access decides document visibility.
//
// A document is readable when it is public, when the caller owns it, or
// when the presented share token matches the document's share secret.
// Anonymous callers (empty caller id) can only use the first and last
// rules. Search and listing never consider share tokens; those apply to
// direct fetch only.
package access

import "github.com/ranjeet229/KnowledgeScout/internal/store"

// CanRead reports whether the caller may read the document.
// callerID and shareToken may be empty (anonymous, no token).
func CanRead(doc *store.Document, callerID, shareToken string) bool {
	if !doc.IsPrivate {
		return true
	}
	if IsOwner(doc, callerID) {
		return true
	}
	return shareToken != "" && shareToken == doc.ShareToken
}

// IsOwner reports whether callerID owns the document.
// Anonymous callers own nothing.
func IsOwner(doc *store.Document, callerID string) bool {
	return callerID != "" && callerID == doc.OwnerID
}

// ShareTokenFor returns the share token the caller is allowed to see:
// the token for the owner, empty for everyone else. A share-token-
// authenticated reader gets the content but never the secret back.
func ShareTokenFor(doc *store.Document, callerID string) string {
	if IsOwner(doc, callerID) {
		return doc.ShareToken
	}
	return ""
}
