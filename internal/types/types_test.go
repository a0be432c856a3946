package types

import (
	"encoding/json"
	"testing"
)

func TestVideoInfoStats(t *testing.T) {
	data := []byte(`{"title":"clip","view_count":120,"like_count":7,"comment_count":null}`)

	var info VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("Failed to decode sidecar: %v", err)
	}

	stats := info.Stats()
	if stats.Views != 120 {
		t.Errorf("Expected 120 views, got %d", stats.Views)
	}
	if stats.Likes != 7 {
		t.Errorf("Expected 7 likes, got %d", stats.Likes)
	}
	if stats.Comments != 0 {
		t.Errorf("Expected 0 comments for null count, got %d", stats.Comments)
	}
}

func TestVideoInfoMissingCounts(t *testing.T) {
	var info VideoInfo
	if err := json.Unmarshal([]byte(`{"title":"bare"}`), &info); err != nil {
		t.Fatalf("Failed to decode sidecar: %v", err)
	}

	if got := info.Stats(); got != (Stats{}) {
		t.Errorf("Expected zero stats, got %+v", got)
	}
}

func TestSelectionJSON(t *testing.T) {
	sel := Selection{Kind: SelectRecent, Count: 5}
	data, err := json.Marshal(sel)
	if err != nil {
		t.Fatalf("Failed to encode selection: %v", err)
	}

	if string(data) != `{"kind":"recent","count":5}` {
		t.Errorf("Unexpected selection JSON: %s", data)
	}
}

func TestWSMessage(t *testing.T) {
	msg := WSMessage{
		Type:    "progress",
		RunID:   "run-123",
		Message: "Downloading...",
		Percent: 50.5,
	}

	if msg.Type != "progress" {
		t.Errorf("Expected type 'progress', got '%s'", msg.Type)
	}

	if msg.Percent != 50.5 {
		t.Errorf("Expected percent 50.5, got %f", msg.Percent)
	}
}
