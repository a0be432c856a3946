package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"feed-export/internal/catalog"
	"feed-export/internal/textutil"
	"feed-export/internal/types"
	"feed-export/pkg/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ExportRequest asks the server to export a feed
type ExportRequest struct {
	Username  string          `json:"username"`
	Selection types.Selection `json:"selection"`
}

// validUser reports whether name can safely be joined to the export root
func validUser(name string) bool {
	return name != "" && name != "." && name != ".." && textutil.Sanitize(name) == name
}

// ListHandler lists the folders of a user's export, newest first. Without a
// user it lists the exported users.
func (a *API) ListHandler(w http.ResponseWriter, r *http.Request) {
	dir := a.Root
	if user := r.URL.Query().Get("user"); user != "" {
		if !validUser(user) {
			sendError(w, "Invalid user", http.StatusBadRequest)
			return
		}
		dir = filepath.Join(a.Root, user)
	}

	entries, err := afero.ReadDir(a.Fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sendError(w, "Export not found", http.StatusNotFound)
			return
		}
		logrus.WithError(err).WithField("dir", dir).Error("Failed to list export")
		sendError(w, "Unable to list export", http.StatusInternalServerError)
		return
	}

	folders := []types.FolderEntry{}
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, types.FolderEntry{Name: entry.Name(), ModTime: entry.ModTime()})
		}
	}

	sort.Slice(folders, func(i, j int) bool {
		if folders[i].ModTime.Equal(folders[j].ModTime) {
			return folders[i].Name > folders[j].Name
		}
		return folders[i].ModTime.After(folders[j].ModTime)
	})

	sendJSON(w, folders)
}

// CatalogHandler returns the CSV rows of a user's export
func (a *API) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if !validUser(user) {
		sendError(w, "Missing or invalid user", http.StatusBadRequest)
		return
	}

	c, err := catalog.Load(a.Fs, filepath.Join(a.Root, user, config.CSVFileName))
	if err != nil {
		logrus.WithError(err).WithField("user", user).Error("Failed to load catalog")
		sendError(w, "Unable to read catalog", http.StatusInternalServerError)
		return
	}

	rows := c.Rows
	if rows == nil {
		rows = []*catalog.Row{}
	}
	sendJSON(w, rows)
}

// StartExportHandler starts an export in the background. Only one export
// runs at a time.
func (a *API) StartExportHandler(w http.ResponseWriter, r *http.Request) {
	if a.Runner == nil {
		sendError(w, "Exports are disabled on this server", http.StatusNotFound)
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimPrefix(strings.TrimSpace(req.Username), "@")
	if !validUser(req.Username) {
		sendError(w, "Missing or invalid username", http.StatusBadRequest)
		return
	}

	job, err := a.Runner.NewJob(req.Username, req.Selection, nil)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		sendError(w, "An export is already running", http.StatusConflict)
		return
	}
	a.running = true
	a.done = make(chan struct{})
	done := a.done
	a.mu.Unlock()

	ctx := a.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	logrus.WithFields(logrus.Fields{
		"runId":    job.ID,
		"username": job.Username,
	}).Info("Export requested over HTTP")

	go func() {
		defer func() {
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			close(done)
		}()
		if _, err := a.Runner.Run(ctx, job); err != nil {
			logrus.WithError(err).WithField("runId", job.ID).Error("Export failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	sendSuccess(w, "Export started", job.ID)
}

// Wait blocks until the export started over HTTP, if any, has finished
func (a *API) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}
