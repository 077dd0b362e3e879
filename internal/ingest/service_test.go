package ingest

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranjeet229/KnowledgeScout/internal/cache"
	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
	"github.com/ranjeet229/KnowledgeScout/internal/stats"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

func newTestService(t *testing.T, maxBytes int64) (*Service, *store.Store, string) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, cache.InitSchema(st.DB()))
	require.NoError(t, stats.InitSchema(st.DB()))

	uploadsDir := t.TempDir()
	tracker := stats.New(st.DB(), nil)
	return NewService(st, tracker, uploadsDir, maxBytes, nil), st, uploadsDir
}

func TestIngestTextPublic(t *testing.T) {
	svc, st, _ := newTestService(t, 0)
	ctx := context.Background()

	doc, err := svc.IngestText(ctx, "notes", "u1", "alpha beta\ngamma", false)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "notes", doc.Title)
	assert.False(t, doc.IsPrivate)
	assert.Empty(t, doc.ShareToken, "public documents carry no share token")
	assert.EqualValues(t, len("alpha beta\ngamma"), doc.Size)
	require.Len(t, doc.Pages, 1)

	stored, err := st.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, stored.Content)
}

func TestIngestTextPrivateGetsShareToken(t *testing.T) {
	svc, _, _ := newTestService(t, 0)

	doc, err := svc.IngestText(context.Background(), "secret", "u1", "content", true)
	require.NoError(t, err)
	assert.True(t, doc.IsPrivate)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), doc.ShareToken)

	other, err := svc.IngestText(context.Background(), "secret2", "u1", "content", true)
	require.NoError(t, err)
	assert.NotEqual(t, doc.ShareToken, other.ShareToken)
}

func TestIngestTextRequiresOwner(t *testing.T) {
	svc, _, _ := newTestService(t, 0)

	_, err := svc.IngestText(context.Background(), "notes", "", "content", false)
	require.Error(t, err)
	assert.True(t, kerr.HasCode(err, kerr.CodeAuthRequired))
}

func TestIngestUpload(t *testing.T) {
	svc, _, uploadsDir := newTestService(t, 0)

	doc, err := svc.IngestUpload(context.Background(), "report.txt",
		strings.NewReader("uploaded content"), "", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", doc.Filename)
	assert.Equal(t, "report.txt", doc.Title, "title falls back to the filename")
	assert.Equal(t, "uploaded content", doc.Content)

	// The stored file keeps the original name behind a unique prefix.
	entries, err := os.ReadDir(uploadsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "-report.txt"))
	assert.Equal(t, filepath.Join(uploadsDir, entries[0].Name()), doc.FilePath)

	data, err := os.ReadFile(doc.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "uploaded content", string(data))
}

func TestIngestUploadSizeCap(t *testing.T) {
	svc, _, _ := newTestService(t, 16)

	_, err := svc.IngestUpload(context.Background(), "big.txt",
		strings.NewReader(strings.Repeat("x", 17)), "", "u1", false)
	require.Error(t, err)
	assert.True(t, kerr.HasCode(err, kerr.CodeFileTooLarge))

	// Exactly at the cap is fine.
	_, err = svc.IngestUpload(context.Background(), "ok.txt",
		strings.NewReader(strings.Repeat("x", 16)), "", "u1", false)
	assert.NoError(t, err)
}

func TestIngestUploadRequiresFilename(t *testing.T) {
	svc, _, _ := newTestService(t, 0)

	_, err := svc.IngestUpload(context.Background(), "", strings.NewReader("x"), "", "u1", false)
	require.Error(t, err)
	assert.True(t, kerr.HasCode(err, kerr.CodeInvalidInput))
}

func TestIngestUpdatesStats(t *testing.T) {
	svc, st, _ := newTestService(t, 0)
	ctx := context.Background()

	_, err := svc.IngestText(ctx, "one", "u1", "content", false)
	require.NoError(t, err)
	_, err = svc.IngestText(ctx, "two", "u1", "content", false)
	require.NoError(t, err)

	tracker := stats.New(st.DB(), nil)
	got, err := tracker.Current(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.TotalDocuments)
	assert.EqualValues(t, 2, got.TotalPages)
	assert.EqualValues(t, 1, got.IndexVersion)
}
