package handlers

import (
	"net/http"

	"feed-export/internal/state"
)

// ServerStateHandler returns the current run state
func ServerStateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sendJSON(w, state.Snapshot())
}
