// Package catalog maintains the cumulative CSV of every exported video.
//
// Rows are keyed by exact title equality. The file is parsed with a real CSV
// reader, so titles and descriptions containing commas, quotes or newlines
// survive a load/write cycle.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"feed-export/internal/textutil"
	"feed-export/internal/types"

	"github.com/gocarina/gocsv"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Row is one line of the catalog. The csv tags define the fixed header.
type Row struct {
	Name         string `csv:"Name"`
	ReleaseDate  string `csv:"Release date"`
	DownloadDate string `csv:"Download date"`
	Description  string `csv:"Description"`
	VideoURL     string `csv:"Video URL"`
	Views        int64  `csv:"Views"`
	Likes        int64  `csv:"Likes"`
	Comments     int64  `csv:"Comments"`
}

// Catalog is a loaded CSV file
type Catalog struct {
	Rows  []*Row
	index map[string]*Row
}

func newCatalog(rows []*Row) *Catalog {
	c := &Catalog{Rows: rows, index: make(map[string]*Row, len(rows))}
	for _, row := range rows {
		if _, dup := c.index[row.Name]; !dup {
			c.index[row.Name] = row
		}
	}
	return c
}

// Empty returns a catalog without rows
func Empty() *Catalog {
	return newCatalog(nil)
}

// Has reports whether a row with exactly this title exists
func (c *Catalog) Has(title string) bool {
	_, ok := c.index[title]
	return ok
}

// Get returns the row with exactly this title
func (c *Catalog) Get(title string) (*Row, bool) {
	row, ok := c.index[title]
	return row, ok
}

// Len returns the number of rows
func (c *Catalog) Len() int {
	return len(c.Rows)
}

// Load reads the catalog at path. A missing or empty file yields an empty
// catalog.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newCatalog(nil), nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return newCatalog(nil), nil
	}

	var rows []*Row
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return newCatalog(rows), nil
}

// Write replaces the file at path with the header and rows
func Write(fs afero.Fs, path string, rows []*Row) error {
	if rows == nil {
		rows = []*Row{}
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// UpdateStats replaces the Views/Likes/Comments of the row titled title.
// The file is only rewritten when the row exists and a counter changed.
func UpdateStats(fs afero.Fs, path, title string, stats types.Stats) (bool, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat catalog: %w", err)
	}
	if !exists {
		return false, nil
	}

	c, err := Load(fs, path)
	if err != nil {
		return false, err
	}

	updated := false
	for _, row := range c.Rows {
		if row.Name != title {
			continue
		}
		if row.Views == stats.Views && row.Likes == stats.Likes && row.Comments == stats.Comments {
			continue
		}
		row.Views = stats.Views
		row.Likes = stats.Likes
		row.Comments = stats.Comments
		updated = true
	}

	if !updated {
		return false, nil
	}

	if err := Write(fs, path, c.Rows); err != nil {
		return false, err
	}
	logrus.WithField("title", title).Info("CSV stats updated")
	return true, nil
}

// RowFromInfo builds a catalog row from a sidecar
func RowFromInfo(info types.VideoInfo, downloadDate string) *Row {
	release := info.UploadDate
	if release != "" {
		if formatted, err := textutil.FormatUploadDate(release); err == nil {
			release = formatted
		}
	}

	url := info.WebpageURL
	if url == "" {
		url = "(No URL)"
	}

	stats := info.Stats()
	return &Row{
		Name:         strings.TrimSpace(info.Title),
		ReleaseDate:  release,
		DownloadDate: downloadDate,
		Description:  info.Description,
		VideoURL:     url,
		Views:        stats.Views,
		Likes:        stats.Likes,
		Comments:     stats.Comments,
	}
}

// Generate rebuilds the catalog from the JSON sidecar of every first-level
// folder of exportDir and writes it to path. Sidecars without an upload date
// (playlist metadata) are ignored. Titles already present in the
// previous catalog keep their original download date.
func Generate(fs afero.Fs, exportDir, path string, clock clockwork.Clock) ([]*Row, error) {
	previous, err := Load(fs, path)
	if err != nil {
		logrus.WithError(err).Warn("Previous catalog unreadable, download dates will be reset")
		previous = newCatalog(nil)
	}

	entries, err := afero.ReadDir(fs, exportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list export directory: %w", err)
	}

	today := textutil.DisplayDate(clock.Now())
	seen := make(map[string]bool)
	rows := []*Row{}

	for _, folder := range entries {
		if !folder.IsDir() {
			continue
		}
		dir := filepath.Join(exportDir, folder.Name())
		files, err := afero.ReadDir(fs, dir)
		if err != nil {
			logrus.WithError(err).WithField("folder", dir).Warn("Failed to list folder")
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			info, err := readInfo(fs, filepath.Join(dir, f.Name()))
			if err != nil {
				logrus.WithError(err).WithField("file", f.Name()).Debug("Skipping unreadable sidecar")
				continue
			}
			if info.UploadDate == "" {
				continue
			}
			title := strings.TrimSpace(info.Title)
			if seen[title] {
				continue
			}
			seen[title] = true

			downloadDate := today
			if old, ok := previous.Get(title); ok && old.DownloadDate != "" {
				downloadDate = old.DownloadDate
			}
			rows = append(rows, RowFromInfo(info, downloadDate))
		}
	}

	if err := Write(fs, path, rows); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"path": path,
		"rows": len(rows),
	}).Info("CSV created")
	return rows, nil
}

func readInfo(fs afero.Fs, path string) (types.VideoInfo, error) {
	var info types.VideoInfo
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return info, fmt.Errorf("failed to read sidecar: %w", err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("failed to decode sidecar: %w", err)
	}
	return info, nil
}
