package types

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// VideoInfo is the subset of the yt-dlp info JSON sidecar the exporter reads
type VideoInfo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	UploadDate   string `json:"upload_date"` // YYYYMMDD
	Uploader     string `json:"uploader"`
	Ext          string `json:"ext"`
	WebpageURL   string `json:"webpage_url"`
	ViewCount    *int64 `json:"view_count"`
	LikeCount    *int64 `json:"like_count"`
	CommentCount *int64 `json:"comment_count"`
}

// Stats returns the engagement counters, treating missing values as zero
func (v VideoInfo) Stats() Stats {
	return Stats{
		Views:    valueOrZero(v.ViewCount),
		Likes:    valueOrZero(v.LikeCount),
		Comments: valueOrZero(v.CommentCount),
	}
}

func valueOrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// Stats holds the engagement counters of a video
type Stats struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// Record is the display record derived from a sidecar
type Record struct {
	Title          string   `json:"title"`
	SanitizedTitle string   `json:"sanitizedTitle"`
	Description    string   `json:"description"`
	Hashtags       []string `json:"hashtags"`
	Stats          Stats    `json:"stats"`
	VideoURL       string   `json:"videoUrl"`
	UploadDate     string   `json:"uploadDate"` // YYYY-MM-DD
	FolderName     string   `json:"folderName"`
	FileStem       string   `json:"fileStem"`
}

// SelectionKind tells yt-dlp which part of the feed to fetch
type SelectionKind string

const (
	SelectAll    SelectionKind = "all"
	SelectRecent SelectionKind = "recent"
	SelectRange  SelectionKind = "range"
)

// Selection describes which videos of the feed to download
type Selection struct {
	Kind  SelectionKind `json:"kind"`
	Count int           `json:"count,omitempty"` // SelectRecent
	From  string        `json:"from,omitempty"`  // SelectRange, YYYY-MM-DD
	To    string        `json:"to,omitempty"`    // SelectRange, YYYY-MM-DD
}

// ExportJob represents one export run
type ExportJob struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	ProfileURL     string    `json:"profileUrl"`
	BaseDir        string    `json:"baseDir"`
	OutputTemplate string    `json:"outputTemplate"`
	Selection      Selection `json:"selection"`
	ExtraArgs      []string  `json:"extraArgs,omitempty"`
	MergeFormat    string    `json:"mergeFormat,omitempty"`
	ArchiveFile    string    `json:"archiveFile,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Summary counts what post-processing did with each sidecar
type Summary struct {
	Processed int `json:"processed"`
	Moved     int `json:"moved"`
	Refreshed int `json:"refreshed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Remuxed   int `json:"remuxed"`
}

// Response represents an API response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}

// StateSnapshot is a copy of the run state safe to serialize
type StateSnapshot struct {
	RunID          string    `json:"runId"`
	Username       string    `json:"username"`
	Phase          string    `json:"phase"`
	Message        string    `json:"message"`
	Percent        float64   `json:"percent"`
	CurrentItem    string    `json:"currentItem,omitempty"`
	Summary        Summary   `json:"summary"`
	YtdlpStatus    string    `json:"ytdlpStatus"`
	YtdlpMessage   string    `json:"ytdlpMessage"`
	YtdlpUpdatedAt time.Time `json:"ytdlpUpdatedAt"`
	StartedAt      time.Time `json:"startedAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FolderEntry is one exported video folder
type FolderEntry struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"modTime"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string         `json:"type"`
	RunID   string         `json:"runId,omitempty"`
	Line    string         `json:"line,omitempty"`
	Percent float64        `json:"percent,omitempty"`
	File    string         `json:"file,omitempty"`
	Message string         `json:"message,omitempty"`
	State   *StateSnapshot `json:"state,omitempty"`
	Summary *Summary       `json:"summary,omitempty"`
}

// WSClientMessage represents a message from the WebSocket client
type WSClientMessage struct {
	Action string `json:"action"`
}

// WSClient represents a WebSocket client connection
type WSClient struct {
	Conn *websocket.Conn
	Mu   sync.Mutex
}
