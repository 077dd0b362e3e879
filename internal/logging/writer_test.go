package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSmallWriter(t *testing.T, maxFiles int) (*RotatingWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	w, err := NewRotatingWriter(path, 1, maxFiles)
	require.NoError(t, err)
	// Shrink the threshold so tests rotate without megabytes of writes.
	w.maxSize = 64
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func TestWriterAppends(t *testing.T) {
	w, path := newSmallWriter(t, 3)

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestWriterRotatesAtSizeLimit(t *testing.T) {
	w, path := newSmallWriter(t, 3)

	line := strings.Repeat("x", 40) + "\n"
	_, err := w.Write([]byte(line))
	require.NoError(t, err)
	// The second write would exceed the cap and lands in a fresh file.
	_, err = w.Write([]byte(line))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	live, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, line, string(live))

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, line, string(rotated))
}

func TestWriterDropsOldestFile(t *testing.T) {
	w, path := newSmallWriter(t, 2)

	line := strings.Repeat("x", 40) + "\n"
	for i := 0; i < 4; i++ {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	_, err := os.Stat(path + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".2")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "only maxFiles rotations are kept")
}

func TestWriterResumesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	_, err = w.Write([]byte("appended\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nappended\n", string(data))
}
