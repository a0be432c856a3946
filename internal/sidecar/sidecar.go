// Package sidecar renders and updates the human-readable TXT file written
// next to every exported video.
package sidecar

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"feed-export/internal/textutil"
	"feed-export/internal/types"

	"github.com/spf13/afero"
)

const (
	NoTitle       = "(No title)"
	NoDescription = "(No description)"
	NoURL         = "(No URL)"

	viewsPrefix    = "  Views:"
	likesPrefix    = "  Likes:"
	commentsPrefix = "  Comments:"
)

// Render returns the TXT content for a record
func Render(rec types.Record) string {
	lines := []string{
		"Title:",
		orDefault(rec.Title, NoTitle),
		"",
		"Description:",
		orDefault(rec.Description, NoDescription),
		"",
		"Hashtags:",
		textutil.FormatHashtags(rec.Description, rec.Hashtags),
		"",
		"Stats:",
		viewsPrefix + " " + strconv.FormatInt(rec.Stats.Views, 10),
		likesPrefix + " " + strconv.FormatInt(rec.Stats.Likes, 10),
		commentsPrefix + " " + strconv.FormatInt(rec.Stats.Comments, 10),
		"",
		"Video URL:",
		orDefault(rec.VideoURL, NoURL),
	}
	return strings.Join(lines, "\n")
}

// Write renders rec into path
func Write(fs afero.Fs, path string, rec types.Record) error {
	if err := afero.WriteFile(fs, path, []byte(Render(rec)), 0o644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

// UpdateStats rewrites the Views/Likes/Comments lines of an existing TXT.
// It reports false when path does not exist.
func UpdateStats(fs afero.Fs, path string, stats types.Stats) (bool, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read sidecar: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, viewsPrefix):
			lines[i] = viewsPrefix + " " + strconv.FormatInt(stats.Views, 10)
		case strings.HasPrefix(line, likesPrefix):
			lines[i] = likesPrefix + " " + strconv.FormatInt(stats.Likes, 10)
		case strings.HasPrefix(line, commentsPrefix):
			lines[i] = commentsPrefix + " " + strconv.FormatInt(stats.Comments, 10)
		}
	}

	if err := afero.WriteFile(fs, path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return false, fmt.Errorf("failed to write sidecar: %w", err)
	}
	return true, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
