package research

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadFileContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notes.md")

	assert.Equal(t, "Successfully wrote to "+path, WriteFileContent(path, "hello"))
	assert.Equal(t, "hello", ReadFileContent(path))
}

func TestReadFileContent_Missing(t *testing.T) {
	got := ReadFileContent(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, strings.HasPrefix(got, "Error reading file: "), got)
}

func TestWriteFileContent_Error(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	got := WriteFileContent(filepath.Join(blocker, "child.txt"), "data")
	assert.True(t, strings.HasPrefix(got, "Error writing file: "), got)
}

func TestListDirectoryContents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), nil, 0o644))

	assert.Equal(t, "a.md\nb.md", ListDirectoryContents(dir))

	got := ListDirectoryContents(filepath.Join(dir, "missing"))
	assert.True(t, strings.HasPrefix(got, "Error listing directory: "), got)
}
