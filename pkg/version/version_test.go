package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	s := String()
	assert.True(t, strings.HasPrefix(s, "knowledgescout "))
	assert.Contains(t, s, Version)
	assert.Contains(t, s, Commit)
}
