package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"feed-export/internal/types"
	"feed-export/internal/websocket"
	"feed-export/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// RequestTimeout bounds the JSON endpoints
const RequestTimeout = 30 * time.Second

// Runner starts export jobs on behalf of the API
type Runner interface {
	NewJob(username string, sel types.Selection, extraArgs []string) (types.ExportJob, error)
	Run(ctx context.Context, job types.ExportJob) (types.Summary, error)
}

// API serves the status page and browses the export root
type API struct {
	Fs   afero.Fs
	Root string
	// Runner is nil when exports cannot be started over HTTP
	Runner Runner
	// Ctx is the parent context of runs started over HTTP
	Ctx context.Context

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewRouter returns the HTTP routes of the status server
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://*", "https://*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", HomeHandler)
	r.Get("/styles.css", StylesHandler)
	r.Get("/ws", websocket.WSHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		r.Get("/api/state", ServerStateHandler)
		r.Get("/list", api.ListHandler)
		r.Get("/catalog", api.CatalogHandler)
		r.Post("/api/export", api.StartExportHandler)
	})

	return r
}

// HomeHandler serves the status page
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(web.IndexHTML)
}

// StylesHandler serves the CSS styles
func StylesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(web.StylesCSS)
}

// sendError sends an error response
func sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.Response{
		Success: false,
		Message: message,
	})
}

// sendSuccess sends a success response
func sendSuccess(w http.ResponseWriter, message string, filename string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.Response{
		Success: true,
		Message: message,
		File:    filename,
	})
}

func sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}
