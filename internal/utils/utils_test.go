package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-05-01.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomicFailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")
	assert.Error(t, WriteFileAtomic(path, []byte("x"), 0o644))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
	assert.False(t, DirectoryExists(filepath.Join(dir, "nope")))
}

func TestLoadEnvReadsProjectDotEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	sub := filepath.Join(root, "site")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("TAGNOTES_TEST_VALUE=from-dotenv\n"), 0o644))

	t.Setenv("TAGNOTES_TEST_VALUE", "")
	os.Unsetenv("TAGNOTES_TEST_VALUE")

	require.NoError(t, LoadEnv(sub))
	assert.Equal(t, "from-dotenv", os.Getenv("TAGNOTES_TEST_VALUE"))
}

func TestLoadEnvWithoutFileIsNoop(t *testing.T) {
	assert.NoError(t, LoadEnv(t.TempDir()))
}
