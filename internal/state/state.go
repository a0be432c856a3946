package state

import (
	"sync"
	"time"

	"feed-export/internal/types"

	"github.com/jonboulle/clockwork"
)

// Run phases
const (
	PhaseIdle        = "idle"
	PhaseChecking    = "checking"
	PhaseDownloading = "downloading"
	PhaseOrganizing  = "organizing"
	PhaseCataloging  = "cataloging"
	PhaseDone        = "done"
	PhaseError       = "error"
)

// ServerState holds the state of the current export run
type ServerState struct {
	RunID          string
	Username       string
	Phase          string
	Message        string
	Percent        float64
	CurrentItem    string
	Summary        types.Summary
	YtdlpStatus    string
	YtdlpMessage   string
	YtdlpUpdatedAt time.Time
	StartedAt      time.Time
	UpdatedAt      time.Time
	mutex          sync.RWMutex
}

var (
	clock       clockwork.Clock = clockwork.NewRealClock()
	globalState                 = newState()
)

func newState() *ServerState {
	now := clock.Now()
	return &ServerState{
		Phase:          PhaseIdle,
		Message:        "Waiting...",
		YtdlpStatus:    "unknown",
		YtdlpMessage:   "Waiting...",
		YtdlpUpdatedAt: now,
		UpdatedAt:      now,
	}
}

// SetClock replaces the clock used for timestamps
func SetClock(c clockwork.Clock) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	clock = c
}

// Reset clears the run state
func Reset() {
	fresh := newState()
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.RunID = fresh.RunID
	globalState.Username = fresh.Username
	globalState.Phase = fresh.Phase
	globalState.Message = fresh.Message
	globalState.Percent = 0
	globalState.CurrentItem = ""
	globalState.Summary = types.Summary{}
	globalState.YtdlpStatus = fresh.YtdlpStatus
	globalState.YtdlpMessage = fresh.YtdlpMessage
	globalState.YtdlpUpdatedAt = fresh.YtdlpUpdatedAt
	globalState.StartedAt = time.Time{}
	globalState.UpdatedAt = fresh.UpdatedAt
}

// GetYtdlpStatus returns the current yt-dlp status
func GetYtdlpStatus() (string, string, time.Time) {
	globalState.mutex.RLock()
	defer globalState.mutex.RUnlock()
	return globalState.YtdlpStatus, globalState.YtdlpMessage, globalState.YtdlpUpdatedAt
}

// SetYtdlpStatus updates the yt-dlp status
func SetYtdlpStatus(status, message string) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.YtdlpStatus = status
	globalState.YtdlpMessage = message
	globalState.YtdlpUpdatedAt = clock.Now()
}

// BeginRun starts tracking a new export run
func BeginRun(runID, username string) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	now := clock.Now()
	globalState.RunID = runID
	globalState.Username = username
	globalState.Phase = PhaseChecking
	globalState.Message = "Starting export"
	globalState.Percent = 0
	globalState.CurrentItem = ""
	globalState.Summary = types.Summary{}
	globalState.StartedAt = now
	globalState.UpdatedAt = now
}

// SetPhase moves the run to another phase
func SetPhase(phase, message string) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.Phase = phase
	globalState.Message = message
	globalState.Percent = 0
	globalState.UpdatedAt = clock.Now()
}

// SetProgress records the progress of the current phase
func SetProgress(percent float64, message string) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.Percent = percent
	if message != "" {
		globalState.Message = message
	}
	globalState.UpdatedAt = clock.Now()
}

// SetCurrentItem records the video being handled
func SetCurrentItem(item string) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.CurrentItem = item
	globalState.UpdatedAt = clock.Now()
}

// SetSummary records the post-processing counters
func SetSummary(summary types.Summary) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.Summary = summary
	globalState.UpdatedAt = clock.Now()
}

// Snapshot returns a copy of the state safe to serialize
func Snapshot() types.StateSnapshot {
	globalState.mutex.RLock()
	defer globalState.mutex.RUnlock()
	return types.StateSnapshot{
		RunID:          globalState.RunID,
		Username:       globalState.Username,
		Phase:          globalState.Phase,
		Message:        globalState.Message,
		Percent:        globalState.Percent,
		CurrentItem:    globalState.CurrentItem,
		Summary:        globalState.Summary,
		YtdlpStatus:    globalState.YtdlpStatus,
		YtdlpMessage:   globalState.YtdlpMessage,
		YtdlpUpdatedAt: globalState.YtdlpUpdatedAt,
		StartedAt:      globalState.StartedAt,
		UpdatedAt:      globalState.UpdatedAt,
	}
}
