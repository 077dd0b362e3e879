package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

func publicDoc() *store.Document {
	return &store.Document{ID: "d1", OwnerID: "u1", IsPrivate: false}
}

func privateDoc() *store.Document {
	return &store.Document{ID: "d2", OwnerID: "u1", IsPrivate: true, ShareToken: "tok-abc"}
}

func TestCanReadPublic(t *testing.T) {
	doc := publicDoc()
	assert.True(t, CanRead(doc, "", ""))
	assert.True(t, CanRead(doc, "u2", ""))
	assert.True(t, CanRead(doc, "u1", ""))
}

func TestCanReadPrivate(t *testing.T) {
	doc := privateDoc()

	assert.True(t, CanRead(doc, "u1", ""), "owner reads without token")
	assert.False(t, CanRead(doc, "u2", ""), "non-owner without token is denied")
	assert.False(t, CanRead(doc, "", ""), "anonymous without token is denied")

	assert.True(t, CanRead(doc, "u2", "tok-abc"), "matching token grants access")
	assert.True(t, CanRead(doc, "", "tok-abc"), "token works for anonymous callers")
	assert.False(t, CanRead(doc, "u2", "tok-wrong"))
}

func TestEmptyTokenNeverMatches(t *testing.T) {
	doc := privateDoc()
	doc.ShareToken = ""
	assert.False(t, CanRead(doc, "u2", ""))
}

func TestIsOwner(t *testing.T) {
	doc := privateDoc()
	assert.True(t, IsOwner(doc, "u1"))
	assert.False(t, IsOwner(doc, "u2"))
	assert.False(t, IsOwner(doc, ""), "anonymous owns nothing")
}

func TestShareTokenFor(t *testing.T) {
	doc := privateDoc()
	assert.Equal(t, "tok-abc", ShareTokenFor(doc, "u1"))
	assert.Equal(t, "", ShareTokenFor(doc, "u2"))
	assert.Equal(t, "", ShareTokenFor(doc, ""))
}
