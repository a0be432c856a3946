// Package export runs the whole pipeline of one export: tooling check,
// download, post-processing and catalog regeneration.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"feed-export/internal/catalog"
	"feed-export/internal/download"
	"feed-export/internal/organize"
	"feed-export/internal/state"
	"feed-export/internal/types"
	"feed-export/internal/websocket"
	"feed-export/pkg/config"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrNoUsername is returned when a job has no account to export
var ErrNoUsername = errors.New("username is required")

// Tool drives the external downloader
type Tool interface {
	EnsureInstalled(ctx context.Context, confirm func() bool) error
	Update(ctx context.Context) error
	Download(ctx context.Context, job types.ExportJob) error
}

// Exporter runs export jobs
type Exporter struct {
	Cfg     *config.Config
	Fs      afero.Fs
	Clock   clockwork.Clock
	Tool    Tool
	Remuxer organize.Remuxer
	// Confirm is asked before installing a missing yt-dlp
	Confirm func() bool
}

// New returns an Exporter on the real filesystem using yt-dlp
func New(cfg *config.Config) *Exporter {
	e := &Exporter{
		Cfg:   cfg,
		Fs:    afero.NewOsFs(),
		Clock: clockwork.NewRealClock(),
		Tool:  download.NewClient(),
	}
	if cfg.Remux {
		e.Remuxer = download.FFmpegRemuxer{}
	}
	return e
}

// NewJob builds the job exporting username's feed
func (e *Exporter) NewJob(username string, sel types.Selection, extraArgs []string) (types.ExportJob, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return types.ExportJob{}, ErrNoUsername
	}
	if _, err := download.SelectionArgs(sel); err != nil {
		return types.ExportJob{}, err
	}

	baseDir := e.Cfg.BaseDir(username)
	job := types.ExportJob{
		ID:             download.GenerateRunID(),
		Username:       username,
		ProfileURL:     e.Cfg.ProfileURLFor(username),
		BaseDir:        baseDir,
		OutputTemplate: download.OutputTemplate(baseDir, username),
		Selection:      sel,
		ExtraArgs:      append(append([]string{}, e.Cfg.ExtraArgs...), extraArgs...),
		MergeFormat:    e.Cfg.MergeFormat,
		CreatedAt:      e.Clock.Now(),
	}
	if e.Cfg.DownloadArchive {
		job.ArchiveFile = filepath.Join(baseDir, config.ArchiveFileName)
	}
	return job, nil
}

// Run executes job. A failed download still post-processes whatever was
// fetched before reporting the download error.
func (e *Exporter) Run(ctx context.Context, job types.ExportJob) (types.Summary, error) {
	log := logrus.WithFields(logrus.Fields{
		"runId":    job.ID,
		"username": job.Username,
	})

	state.BeginRun(job.ID, job.Username)
	websocket.BroadcastState()

	if err := e.Tool.EnsureInstalled(ctx, e.Confirm); err != nil {
		return types.Summary{}, e.fail(job, fmt.Errorf("yt-dlp unavailable: %w", err))
	}

	if e.Cfg.UpdateYtdlp {
		if err := e.Tool.Update(ctx); err != nil {
			log.WithError(err).Warn("Continuing with the installed yt-dlp")
		}
	}

	if err := e.Fs.MkdirAll(job.BaseDir, 0o755); err != nil {
		return types.Summary{}, e.fail(job, fmt.Errorf("failed to create export directory: %w", err))
	}

	e.setPhase(state.PhaseDownloading, fmt.Sprintf("Downloading %s", job.ProfileURL))
	log.WithField("selection", job.Selection.Kind).Info("Downloading feed")
	downloadErr := e.Tool.Download(ctx, job)
	if downloadErr != nil {
		if ctx.Err() != nil {
			return types.Summary{}, e.fail(job, ctx.Err())
		}
		log.WithError(downloadErr).Error("Download failed, organizing what was fetched")
	}

	e.setPhase(state.PhaseOrganizing, "Organizing downloads")
	csvPath := filepath.Join(job.BaseDir, config.CSVFileName)
	org := organize.New(e.Fs, job.Username, job.BaseDir, csvPath)
	org.Remuxer = e.Remuxer
	org.Progress = func(done, total int, title string) {
		percent := float64(done) * 100 / float64(total)
		state.SetCurrentItem(title)
		state.SetProgress(percent, "")
		websocket.BroadcastProgress(job.ID, percent, title, fmt.Sprintf("Organized %d/%d", done, total))
	}

	summary, err := org.Run(ctx)
	state.SetSummary(summary)
	if err != nil {
		return summary, e.fail(job, err)
	}

	e.setPhase(state.PhaseCataloging, "Writing CSV")
	rows, err := catalog.Generate(e.Fs, job.BaseDir, csvPath, e.Clock)
	if err != nil {
		return summary, e.fail(job, err)
	}

	if downloadErr != nil {
		return summary, e.fail(job, downloadErr)
	}

	e.setPhase(state.PhaseDone, fmt.Sprintf("Export complete: %d videos in %s", len(rows), job.BaseDir))
	websocket.BroadcastToAll(types.WSMessage{
		Type:    websocket.TypeDone,
		RunID:   job.ID,
		File:    csvPath,
		Message: "Export complete",
		Summary: &summary,
	})
	log.WithFields(logrus.Fields{
		"rows": len(rows),
		"csv":  csvPath,
	}).Info("Export complete")
	return summary, nil
}

func (e *Exporter) setPhase(phase, message string) {
	state.SetPhase(phase, message)
	websocket.BroadcastState()
}

func (e *Exporter) fail(job types.ExportJob, err error) error {
	state.SetPhase(state.PhaseError, err.Error())
	websocket.BroadcastToAll(types.WSMessage{
		Type:    websocket.TypeError,
		RunID:   job.ID,
		Message: err.Error(),
	})
	return err
}
