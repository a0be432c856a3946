package state

import (
	"testing"
	"time"

	"feed-export/internal/types"

	"github.com/jonboulle/clockwork"
)

func TestYtdlpStatus(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	SetClock(fake)
	defer SetClock(clockwork.NewRealClock())
	Reset()

	SetYtdlpStatus("uptodate", "yt-dlp is already up to date")

	status, message, updatedAt := GetYtdlpStatus()
	if status != "uptodate" {
		t.Errorf("Expected status 'uptodate', got %s", status)
	}
	if message != "yt-dlp is already up to date" {
		t.Errorf("Expected message to be stored, got %s", message)
	}
	if !updatedAt.Equal(fake.Now()) {
		t.Errorf("Expected timestamp %v, got %v", fake.Now(), updatedAt)
	}
}

func TestRunLifecycle(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	SetClock(fake)
	defer SetClock(clockwork.NewRealClock())
	Reset()

	BeginRun("run-1", "someone")
	snap := Snapshot()
	if snap.RunID != "run-1" || snap.Username != "someone" {
		t.Errorf("Expected run-1/someone, got %s/%s", snap.RunID, snap.Username)
	}
	if snap.Phase != PhaseChecking {
		t.Errorf("Expected phase %s, got %s", PhaseChecking, snap.Phase)
	}
	if !snap.StartedAt.Equal(fake.Now()) {
		t.Errorf("Expected start time %v, got %v", fake.Now(), snap.StartedAt)
	}

	fake.Advance(time.Minute)
	SetPhase(PhaseDownloading, "Downloading")
	SetProgress(42.5, "")
	SetCurrentItem("clip.mp4")

	snap = Snapshot()
	if snap.Percent != 42.5 {
		t.Errorf("Expected percent 42.5, got %v", snap.Percent)
	}
	if snap.Message != "Downloading" {
		t.Errorf("Expected empty progress message to keep 'Downloading', got %s", snap.Message)
	}
	if snap.CurrentItem != "clip.mp4" {
		t.Errorf("Expected current item clip.mp4, got %s", snap.CurrentItem)
	}
	if !snap.UpdatedAt.Equal(fake.Now()) {
		t.Errorf("Expected updated time %v, got %v", fake.Now(), snap.UpdatedAt)
	}

	SetPhase(PhaseOrganizing, "Organizing")
	if Snapshot().Percent != 0 {
		t.Error("Expected percent to reset on phase change")
	}

	SetSummary(types.Summary{Processed: 3, Moved: 2, Skipped: 1})
	if got := Snapshot().Summary.Moved; got != 2 {
		t.Errorf("Expected 2 moved, got %d", got)
	}

	Reset()
	snap = Snapshot()
	if snap.Phase != PhaseIdle || snap.RunID != "" || snap.Summary.Processed != 0 {
		t.Errorf("Expected idle state after reset, got %+v", snap)
	}
}
