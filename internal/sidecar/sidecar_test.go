package sidecar

import (
	"testing"

	"feed-export/internal/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() types.Record {
	return types.Record{
		Title:       "My first clip",
		Description: "hello #fyp",
		Hashtags:    []string{"#fyp"},
		Stats:       types.Stats{Views: 100, Likes: 10, Comments: 1},
		VideoURL:    "https://www.tiktok.com/@someone/video/1",
	}
}

func TestRender(t *testing.T) {
	want := "Title:\nMy first clip\n\n" +
		"Description:\nhello #fyp\n\n" +
		"Hashtags:\n#fyp\n\n" +
		"Stats:\n  Views: 100\n  Likes: 10\n  Comments: 1\n\n" +
		"Video URL:\nhttps://www.tiktok.com/@someone/video/1"

	assert.Equal(t, want, Render(sampleRecord()))
}

func TestRenderPlaceholders(t *testing.T) {
	out := Render(types.Record{})

	assert.Contains(t, out, "Title:\n"+NoTitle+"\n")
	assert.Contains(t, out, "Description:\n"+NoDescription+"\n")
	assert.Contains(t, out, "Hashtags:\n(No hashtags)\n")
	assert.Contains(t, out, "  Views: 0\n")
	assert.Contains(t, out, "Video URL:\n"+NoURL)
}

func TestRenderDescriptionWithoutHashtags(t *testing.T) {
	out := Render(types.Record{Title: "plain", Description: "just words"})

	assert.Contains(t, out, "Hashtags:\n\n\nStats:\n")
}

func TestWriteAndUpdateStats(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/export/folder/clip.txt"
	require.NoError(t, fs.MkdirAll("/export/folder", 0o755))

	require.NoError(t, Write(fs, path, sampleRecord()))

	updated, err := UpdateStats(fs, path, types.Stats{Views: 2500, Likes: 300, Comments: 42})
	require.NoError(t, err)
	assert.True(t, updated)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	want := sampleRecord()
	want.Stats = types.Stats{Views: 2500, Likes: 300, Comments: 42}
	assert.Equal(t, Render(want), string(data))
}

func TestUpdateStatsMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	updated, err := UpdateStats(fs, "/nope.txt", types.Stats{Views: 1})
	require.NoError(t, err)
	assert.False(t, updated)

	exists, err := afero.Exists(fs, "/nope.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateStatsLeavesOtherLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "Title:\nViews: not indented\n  Views: 1\nfooter"
	require.NoError(t, afero.WriteFile(fs, "/a.txt", []byte(content), 0o644))

	_, err := UpdateStats(fs, "/a.txt", types.Stats{Views: 9})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "Title:\nViews: not indented\n  Views: 9\nfooter", string(data))
}
