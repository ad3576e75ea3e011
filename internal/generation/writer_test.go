package generation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.png")

	require.NoError(t, writeFile(path, []byte("image-bytes")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), got)
}

func TestWriteFileOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, writeFile(path, []byte("first run")))
	require.NoError(t, writeFile(path, []byte("second run, different length")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second run, different length"), got)
}

func TestWriteFileLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeFile(filepath.Join(dir, "out.png"), []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.png", entries[0].Name())
}

func TestWriteFileReportsWriteFailure(t *testing.T) {
	// A regular file in the parent position makes directory creation fail on
	// every platform, root or not.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("in the way"), 0o644))

	err := writeFile(filepath.Join(blocker, "out.png"), []byte("x"))

	require.Error(t, err)
	assert.Equal(t, WriteFailure, CategoryOf(err))
}

func TestWriteFileEmptyBytes(t *testing.T) {
	// The writer itself does not police payload size; emptiness is rejected
	// upstream by the extractor.
	path := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, writeFile(path, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
