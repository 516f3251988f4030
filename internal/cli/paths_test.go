package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", appName), dir)
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(custom, appName), dir)
}

func TestDefaultResultsPath(t *testing.T) {
	assert.Equal(t, "data/kosarak.results", defaultResultsPath("data/kosarak.dat.gz"))
	assert.Equal(t, "kosarak.results", defaultResultsPath("kosarak.dat"))
	assert.Equal(t, "sessions.results", defaultResultsPath("sessions"))
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	n, err := clearCache(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))
	n, err = clearCache(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
}
