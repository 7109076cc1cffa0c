package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 0, manager.SavedCount())
	assert.False(t, manager.IsSaved("C8H5FiCtESk_00.jpg"))

	n, err := manager.Save(strings.NewReader("test media data"), "C8H5FiCtESk_00.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(len("test media data")), n)

	content, err := os.ReadFile(filepath.Join(tempDir, "C8H5FiCtESk_00.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "test media data", string(content))
	assert.True(t, manager.IsSaved("C8H5FiCtESk_00.jpg"))
	assert.Equal(t, 1, manager.SavedCount())

	_, err = os.Stat(filepath.Join(tempDir, "C8H5FiCtESk_00.jpg.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestManagerScansExistingFiles(t *testing.T) {
	tempDir := t.TempDir()
	for name, data := range map[string]string{
		"a_00.jpg":      "jpg",
		"b_01.mp4":      "mp4",
		"a_00.jpg.json": "{}",
		"c_00.jpg.tmp":  "partial",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, name), []byte(data), 0o644))
	}

	manager, err := NewManager(tempDir)
	require.NoError(t, err)

	assert.Equal(t, 2, manager.SavedCount())
	assert.True(t, manager.IsSaved("a_00.jpg"))
	assert.True(t, manager.IsSaved("b_01.mp4"))
	assert.False(t, manager.IsSaved("c_00.jpg"))
}

func TestManagerNoticesFilesWrittenLater(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "late_00.png"), []byte("x"), 0o644))

	assert.True(t, manager.IsSaved("late_00.png"))
	assert.Equal(t, 1, manager.SavedCount())
}

func TestManagerRejectsPathsOutsideDir(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.jpg", "nested/file.jpg", ".hidden"} {
		_, err := manager.Save(strings.NewReader("x"), name)
		assert.Error(t, err, name)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestManagerCleansUpFailedWrites(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	require.NoError(t, err)

	_, err = manager.Save(failingReader{}, "broken_00.jpg")
	require.Error(t, err)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, manager.IsSaved("broken_00.jpg"))
}

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "zuck")

	manager, err := NewManager(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, manager.OutputDir())
}
