package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"feed-export/internal/state"
	"feed-export/internal/textutil"
	"feed-export/internal/types"
	"feed-export/internal/websocket"
	"feed-export/pkg/config"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
)

// ErrNotInstalled is returned when yt-dlp is missing and the user declined
// to install it
var ErrNotInstalled = errors.New("yt-dlp is not installed")

// GenerateRunID generates a unique export run ID
func GenerateRunID() string {
	return "run_" + uuid.NewString()
}

// OutputTemplate returns the yt-dlp output template placing every video in
// its own dated folder under baseDir
func OutputTemplate(baseDir, username string) string {
	prefix := "%(upload_date>%Y-%m-%d)s-" + username + " - "
	folder := prefix + "%(title)." + strconv.Itoa(config.FolderLength) + "s"
	file := prefix + "%(title)." + strconv.Itoa(config.FilenameLength) + "s.%(ext)s"
	return filepath.Join(baseDir, folder, file)
}

// SelectionArgs converts a selection into yt-dlp arguments
func SelectionArgs(sel types.Selection) ([]string, error) {
	switch sel.Kind {
	case types.SelectAll, "":
		return nil, nil
	case types.SelectRecent:
		if sel.Count <= 0 {
			return nil, fmt.Errorf("recent selection needs a positive count, got %d", sel.Count)
		}
		return []string{"--playlist-end", strconv.Itoa(sel.Count)}, nil
	case types.SelectRange:
		from, err := textutil.CompactDate(sel.From)
		if err != nil {
			return nil, err
		}
		to, err := textutil.CompactDate(sel.To)
		if err != nil {
			return nil, err
		}
		return []string{"--dateafter", from, "--datebefore", to}, nil
	default:
		return nil, fmt.Errorf("unknown selection %q", sel.Kind)
	}
}

// EnsureInstalled makes sure a yt-dlp executable is available. When none is
// found, confirm is asked whether one may be downloaded.
func EnsureInstalled(ctx context.Context, confirm func() bool) error {
	resolved, err := ytdlp.Install(ctx, &ytdlp.InstallOptions{DisableDownload: true})
	if err == nil {
		logrus.WithField("executable", resolved.Executable).Debug("yt-dlp found")
		return nil
	}

	logrus.WithError(err).Warn("yt-dlp not found")
	if confirm == nil || !confirm() {
		return ErrNotInstalled
	}

	state.SetYtdlpStatus("installing", "Installing yt-dlp...")
	websocket.BroadcastToAll(types.WSMessage{Type: websocket.TypeYtdlp, Message: "Installing yt-dlp..."})

	resolved, err = ytdlp.Install(ctx, nil)
	if err != nil {
		state.SetYtdlpStatus("error", fmt.Sprintf("yt-dlp installation failed: %v", err))
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}

	logrus.WithField("executable", resolved.Executable).Info("yt-dlp installed")
	state.SetYtdlpStatus("installed", "yt-dlp installed")
	return nil
}

// CheckAndUpdateYtDlp checks if yt-dlp is up to date and updates it if necessary
func CheckAndUpdateYtDlp(ctx context.Context) error {
	logrus.Info("Starting yt-dlp update check...")

	state.SetYtdlpStatus("checking", "Checking yt-dlp version...")
	websocket.BroadcastToAll(types.WSMessage{
		Type:    websocket.TypeYtdlp,
		Message: "Checking yt-dlp version...",
	})

	result, err := ytdlp.New().Update(ctx)
	if err != nil {
		logrus.WithError(err).Warn("yt-dlp update failed")
		state.SetYtdlpStatus("error", fmt.Sprintf("yt-dlp update failed: %v", err))
		websocket.BroadcastToAll(types.WSMessage{
			Type:    websocket.TypeYtdlp,
			Message: fmt.Sprintf("yt-dlp update failed: %v", err),
		})
		return err
	}

	if result == nil || result.ExitCode != 0 {
		logrus.WithField("result", result).Warn("yt-dlp update result was unexpected")
		return nil
	}

	stdout := strings.TrimSpace(result.Stdout)
	logrus.WithFields(logrus.Fields{
		"exit_code": result.ExitCode,
		"stdout":    stdout,
	}).Debug("yt-dlp update result")

	status, message := UpdateOutcome(stdout)
	if status == "" {
		return nil
	}
	logrus.Info(message)
	state.SetYtdlpStatus(status, message)
	websocket.BroadcastToAll(types.WSMessage{Type: websocket.TypeYtdlp, Message: message})
	return nil
}

// UpdateOutcome classifies the output of yt-dlp -U
func UpdateOutcome(stdout string) (string, string) {
	switch {
	case strings.Contains(stdout, "Updated yt-dlp to"):
		return "updated", "yt-dlp was updated successfully"
	case strings.Contains(stdout, "yt-dlp is up to date"):
		return "uptodate", "yt-dlp is already up to date"
	default:
		return "", ""
	}
}

// Client runs yt-dlp for export jobs
type Client struct {
	// ProgressInterval throttles progress callbacks
	ProgressInterval time.Duration
}

// NewClient returns a Client with the default progress interval
func NewClient() *Client {
	return &Client{ProgressInterval: 500 * time.Millisecond}
}

// Download fetches the job's profile feed into its base directory
func (c *Client) Download(ctx context.Context, job types.ExportJob) error {
	args, err := Args(job)
	if err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{
		"runId":          job.ID,
		"outputTemplate": job.OutputTemplate,
		"url":            job.ProfileURL,
	})
	log.Info("Starting yt-dlp execution...")

	dl := ytdlp.New().
		MergeOutputFormat(MergeFormat(job)).
		Output(job.OutputTemplate).
		WriteInfoJSON().
		NoWarnings().
		Progress().
		Newline()

	if job.ArchiveFile != "" {
		dl = dl.DownloadArchive(job.ArchiveFile)
	}

	tracker := &progressTracker{runID: job.ID}
	dl.ProgressFunc(c.ProgressInterval, tracker.handle)

	if _, err := dl.Run(ctx, args...); err != nil {
		if ctx.Err() != nil {
			log.Info("Download cancelled")
			return ctx.Err()
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}

	log.WithField("videos", tracker.finished).Info("yt-dlp execution completed successfully")
	return nil
}

// Args returns the raw yt-dlp arguments for a job, ending with the profile URL
func Args(job types.ExportJob) ([]string, error) {
	selection, err := SelectionArgs(job.Selection)
	if err != nil {
		return nil, err
	}
	args := []string{"--continue"}
	args = append(args, selection...)
	args = append(args, job.ExtraArgs...)
	return append(args, job.ProfileURL), nil
}

// MergeFormat returns the container yt-dlp merges the job's streams into
func MergeFormat(job types.ExportJob) string {
	if job.MergeFormat == "" {
		return config.DefaultMergeFormat
	}
	return job.MergeFormat
}

type progressTracker struct {
	runID         string
	calls         int
	finished      int
	lastBroadcast time.Time
	lastPercent   float64
}

func (p *progressTracker) handle(update ytdlp.ProgressUpdate) {
	p.calls++
	file := filepath.Base(update.Filename)

	if p.calls%10 == 1 {
		logrus.WithFields(logrus.Fields{
			"runId":   p.runID,
			"status":  update.Status,
			"percent": update.PercentString(),
			"file":    file,
		}).Debug("yt-dlp progress update")
	}

	var msg string
	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		eta := ""
		if update.ETA() > 0 {
			eta = fmt.Sprintf(" ETA %s", update.ETA().Round(time.Second))
		}
		msg = fmt.Sprintf("Downloading %s: %s%s", file, update.PercentString(), eta)
	case ytdlp.ProgressStatusFinished:
		p.finished++
		msg = fmt.Sprintf("Downloaded %s", file)
		logrus.WithFields(logrus.Fields{"runId": p.runID, "file": file}).Info("Video downloaded")
		websocket.BroadcastLine(p.runID, msg)
	case ytdlp.ProgressStatusError:
		msg = fmt.Sprintf("Error downloading %s", file)
	case ytdlp.ProgressStatusStarting:
		msg = fmt.Sprintf("Starting %s", file)
	default:
		msg = fmt.Sprintf("Status: %s @ %s", update.Status, update.PercentString())
	}

	percent := update.Percent()
	state.SetCurrentItem(file)
	state.SetProgress(percent, msg)

	// throttle broadcasts while bytes are flowing
	if update.Status == ytdlp.ProgressStatusDownloading &&
		time.Since(p.lastBroadcast) < time.Second &&
		percent-p.lastPercent < 1.0 {
		return
	}
	websocket.BroadcastProgress(p.runID, percent, file, msg)
	p.lastBroadcast = time.Now()
	p.lastPercent = percent
}

// EnsureInstalled makes sure yt-dlp is available for this client
func (c *Client) EnsureInstalled(ctx context.Context, confirm func() bool) error {
	return EnsureInstalled(ctx, confirm)
}

// Update runs yt-dlp -U
func (c *Client) Update(ctx context.Context) error {
	return CheckAndUpdateYtDlp(ctx)
}
