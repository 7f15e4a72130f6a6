package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestFindFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.hcl"))
	touch(t, filepath.Join(dir, "sub", "a.hcl"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "x.hcl.bak"))
	single := filepath.Join(dir, "b.hcl")

	// --- Act ---
	files, err := FindFiles([]string{dir, single, filepath.Join(dir, "notes.txt")}, ".hcl")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.hcl"), filepath.Join(dir, "sub", "a.hcl")}, files)
}

func TestFindFiles_Errors(t *testing.T) {
	t.Parallel()

	_, err := FindFiles([]string{filepath.Join(t.TempDir(), "missing")}, ".hcl")
	assert.Error(t, err)

	assert.Panics(t, func() { _, _ = FindFiles(nil, "") })
}
