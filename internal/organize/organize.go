// Package organize moves what yt-dlp downloaded into one folder per video,
// renames media and sidecars consistently and writes the TXT sidecar.
package organize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"feed-export/internal/catalog"
	"feed-export/internal/sidecar"
	"feed-export/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrNoUploadDate marks sidecars that cannot be placed in a dated folder
var ErrNoUploadDate = errors.New("sidecar has no upload date")

// Extensions moved and renamed into the video folder
var keptExtensions = map[string]bool{
	".mp4":  true,
	".json": true,
}

// Suffix yt-dlp gives the info JSON it writes next to each video
const freshSuffix = ".info.json"

// Containers converted to mp4 when a Remuxer is configured
var remuxExtensions = map[string]bool{
	".webm": true,
	".mkv":  true,
	".mov":  true,
	".m4v":  true,
	".flv":  true,
}

// Remuxer converts a media file into an mp4 container
type Remuxer interface {
	Remux(ctx context.Context, src, dst string) error
}

// ProgressFunc is called after each sidecar is handled
type ProgressFunc func(done, total int, title string)

// Organizer post-processes one user's export directory
type Organizer struct {
	Fs        afero.Fs
	Username  string
	ExportDir string
	CSVPath   string
	Remuxer   Remuxer
	Progress  ProgressFunc
}

// New returns an Organizer without remuxing or progress reporting
func New(fs afero.Fs, username, exportDir, csvPath string) *Organizer {
	return &Organizer{
		Fs:        fs,
		Username:  username,
		ExportDir: exportDir,
		CSVPath:   csvPath,
	}
}

// Run handles every JSON sidecar found under the export directory
func (o *Organizer) Run(ctx context.Context) (types.Summary, error) {
	var summary types.Summary

	existing, err := catalog.Load(o.Fs, o.CSVPath)
	if err != nil {
		logrus.WithError(err).WithField("csv", o.CSVPath).Warn("Existing catalog unreadable, treating every video as new")
		existing = catalog.Empty()
	}

	sidecars, err := o.findSidecars()
	if err != nil {
		return summary, err
	}

	logrus.WithFields(logrus.Fields{
		"exportDir": o.ExportDir,
		"sidecars":  len(sidecars),
		"known":     existing.Len(),
	}).Info("Post-processing downloads")

	refreshed := make(map[string]bool)
	for i, path := range sidecars {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		title := o.process(ctx, path, existing, refreshed, &summary)
		if o.Progress != nil {
			o.Progress(i+1, len(sidecars), title)
		}
	}

	logrus.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"moved":     summary.Moved,
		"refreshed": summary.Refreshed,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Post-processing completed")

	return summary, nil
}

func (o *Organizer) findSidecars() ([]string, error) {
	var paths []string
	err := afero.Walk(o.Fs, o.ExportDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && strings.HasSuffix(info.Name(), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan export directory: %w", err)
	}
	// fresh downloads first so an organized sidecar never overrides them
	sort.SliceStable(paths, func(i, j int) bool {
		fi, fj := isFresh(paths[i]), isFresh(paths[j])
		if fi != fj {
			return fi
		}
		return paths[i] < paths[j]
	})
	return paths, nil
}

// isFresh reports whether path is an info JSON as written by yt-dlp, as
// opposed to one already renamed into its video folder
func isFresh(path string) bool {
	return strings.HasSuffix(path, freshSuffix)
}

// process handles one sidecar and returns the title it describes
func (o *Organizer) process(ctx context.Context, path string, existing *catalog.Catalog, refreshed map[string]bool, summary *types.Summary) string {
	log := logrus.WithField("sidecar", path)

	data, err := afero.ReadFile(o.Fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// moved along with a sibling earlier in this run
			log.Debug("Sidecar no longer present")
			summary.Skipped++
			return ""
		}
		log.WithError(err).Warn("Could not read sidecar")
		summary.Failed++
		return ""
	}

	var info types.VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		log.WithError(err).Warn("Could not decode sidecar")
		summary.Failed++
		return ""
	}

	rec, err := BuildRecord(info, o.Username)
	if err != nil {
		if errors.Is(err, ErrNoUploadDate) {
			log.Debug("Sidecar without upload date skipped")
		} else {
			log.WithError(err).Warn("Sidecar skipped")
		}
		summary.Skipped++
		return info.Title
	}

	folder := filepath.Join(o.ExportDir, rec.FolderName)
	if err := o.Fs.MkdirAll(folder, 0o755); err != nil {
		log.WithError(err).Warn("Could not create video folder")
		summary.Failed++
		return rec.Title
	}
	txtPath := filepath.Join(folder, TextFileName(rec))

	if existing.Has(rec.Title) {
		if refreshed[rec.Title] || !isFresh(path) {
			log.WithField("title", rec.Title).Debug("Already organized")
			summary.Skipped++
			return rec.Title
		}
		refreshed[rec.Title] = true
		log.WithField("title", rec.Title).Info("Episode already in CSV, updating stats only")
		txtPath = o.existingTextPath(folder, rec, txtPath)
		if _, err := sidecar.UpdateStats(o.Fs, txtPath, rec.Stats); err != nil {
			log.WithError(err).Warn("Could not update TXT stats")
		}
		if _, err := catalog.UpdateStats(o.Fs, o.CSVPath, rec.Title, rec.Stats); err != nil {
			log.WithError(err).Warn("Could not update CSV stats")
		}
		if err := o.replaceSidecar(path, filepath.Join(folder, rec.FileStem+".json")); err != nil {
			log.WithError(err).Warn("Could not store refreshed info JSON")
		}
		summary.Refreshed++
		return rec.Title
	}

	srcDir := filepath.Dir(path)
	if o.Remuxer != nil {
		summary.Remuxed += o.remuxMedia(ctx, srcDir)
	}

	if err := o.moveInto(srcDir, folder); err != nil {
		log.WithError(err).Warn("Could not move downloaded files")
		summary.Failed++
		return rec.Title
	}
	if err := o.renameMedia(folder, rec.FileStem); err != nil {
		log.WithError(err).Warn("Could not rename downloaded files")
	}

	if err := sidecar.Write(o.Fs, txtPath, rec); err != nil {
		log.WithError(err).Warn("Could not write TXT file")
	} else {
		log.WithField("txt", txtPath).Info("TXT created")
	}

	if filepath.Clean(srcDir) != filepath.Clean(folder) {
		o.removeIfEmpty(srcDir)
	}

	summary.Moved++
	return rec.Title
}

// existingTextPath returns the TXT of rec under the name older exports gave
// it when only that one exists
func (o *Organizer) existingTextPath(folder string, rec types.Record, current string) string {
	if exists, _ := afero.Exists(o.Fs, current); exists {
		return current
	}
	legacy := filepath.Join(folder, LegacyTextFileName(rec, o.Username))
	if exists, _ := afero.Exists(o.Fs, legacy); exists {
		return legacy
	}
	return current
}

// replaceSidecar stores the freshly downloaded info JSON as the folder's
// sidecar so the catalog regenerated afterwards sees the new counters
func (o *Organizer) replaceSidecar(path, dest string) error {
	if filepath.Clean(path) == filepath.Clean(dest) {
		return nil
	}
	if exists, err := afero.Exists(o.Fs, dest); err != nil {
		return err
	} else if exists {
		if err := o.Fs.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove stale sidecar: %w", err)
		}
	}
	if err := o.Fs.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move sidecar: %w", err)
	}
	o.removeIfEmpty(filepath.Dir(path))
	return nil
}

// moveInto moves the kept files of srcDir into folder, never overwriting
func (o *Organizer) moveInto(srcDir, folder string) error {
	if filepath.Clean(srcDir) == filepath.Clean(folder) {
		return nil
	}

	entries, err := afero.ReadDir(o.Fs, srcDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !keptExtensions[filepath.Ext(entry.Name())] {
			continue
		}
		dest := filepath.Join(folder, entry.Name())
		exists, err := afero.Exists(o.Fs, dest)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := o.Fs.Rename(filepath.Join(srcDir, entry.Name()), dest); err != nil {
			return fmt.Errorf("failed to move %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// renameMedia gives every kept file of folder the name <stem><ext>
func (o *Organizer) renameMedia(folder, stem string) error {
	entries, err := afero.ReadDir(o.Fs, folder)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", folder, err)
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || !keptExtensions[ext] {
			continue
		}
		target := stem + ext
		if entry.Name() == target {
			continue
		}
		if err := o.Fs.Rename(filepath.Join(folder, entry.Name()), filepath.Join(folder, target)); err != nil {
			return fmt.Errorf("failed to rename %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// remuxMedia converts non-mp4 containers of dir in place and returns how
// many were converted. Originals are kept when conversion fails.
func (o *Organizer) remuxMedia(ctx context.Context, dir string) int {
	entries, err := afero.ReadDir(o.Fs, dir)
	if err != nil {
		return 0
	}

	converted := 0
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || !remuxExtensions[ext] {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".mp4"
		if exists, _ := afero.Exists(o.Fs, dst); exists {
			continue
		}
		if err := o.Remuxer.Remux(ctx, src, dst); err != nil {
			logrus.WithError(err).WithField("file", src).Warn("Remux failed, keeping original")
			continue
		}
		if err := o.Fs.Remove(src); err != nil {
			logrus.WithError(err).WithField("file", src).Warn("Could not remove remuxed original")
		}
		converted++
	}
	return converted
}

func (o *Organizer) removeIfEmpty(dir string) {
	if filepath.Clean(dir) == filepath.Clean(o.ExportDir) {
		return
	}
	empty, err := afero.IsEmpty(o.Fs, dir)
	if err != nil || !empty {
		return
	}
	if err := o.Fs.Remove(dir); err != nil {
		logrus.WithError(err).WithField("dir", dir).Debug("Could not remove empty download folder")
	}
}
