package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/salon-scraper/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedPath(t *testing.T) {
	base := t.TempDir()

	err := fileutil.EnsureDir(base, "a", "b", "c")
	require.Nil(t, err)

	info, statErr := os.Stat(filepath.Join(base, "a", "b", "c"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_ExistingDirIsNoop(t *testing.T) {
	base := t.TempDir()

	require.Nil(t, fileutil.EnsureDir(base))
	require.Nil(t, fileutil.EnsureDir(base))
}

func TestEnsureParentDir(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "cache", "scraper_cache.json")

	err := fileutil.EnsureParentDir(file)
	require.Nil(t, err)

	info, statErr := os.Stat(filepath.Join(base, "cache"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}
