package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagnotes/internal/models"
)

func TestContentListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	_, err := NewDayWriter(dir).Write(context.Background(), AggregateDays([]models.Summary{
		summaryFor("api-1", "2024-03-01", "a"),
		summaryFor("api-2", "2024-03-03", "b"),
		summaryFor("api-3", "2024-03-03", "c"),
	}, 6))
	require.NoError(t, err)

	_, err = NewDayWriter(filepath.Join(dir, "archive")).Write(context.Background(), AggregateDays([]models.Summary{
		summaryFor("api-0", "2023-12-31", "z"),
	}, 6))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	infos, err := NewContentService(dir).List()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "2024-03-03", infos[0].Slug)
	assert.Equal(t, 2, infos[0].Highlights)
	assert.Equal(t, "2024-03-01", infos[1].Slug)
	assert.Equal(t, "2023-12-31", infos[2].Slug)
	assert.Equal(t, filepath.Join(dir, "archive", "2023-12-31.json"), infos[2].Path)
}

func TestContentListMissingDir(t *testing.T) {
	infos, err := NewContentService(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
