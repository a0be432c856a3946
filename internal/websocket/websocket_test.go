package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feed-export/internal/state"
	"feed-export/internal/types"

	gws "github.com/gorilla/websocket"
)

func dial(t *testing.T) (*gws.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(WSHandler))
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("Failed to dial WebSocket: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readMessage(t *testing.T, conn *gws.Conn) types.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg types.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	return msg
}

func TestWSHandlerSendsInitialState(t *testing.T) {
	state.Reset()
	state.BeginRun("run-42", "someone")
	defer state.Reset()

	conn, closeAll := dial(t)
	defer closeAll()

	msg := readMessage(t, conn)
	if msg.Type != TypeState {
		t.Fatalf("Expected first message type %s, got %s", TypeState, msg.Type)
	}
	if msg.State == nil || msg.State.RunID != "run-42" {
		t.Errorf("Expected state for run-42, got %+v", msg.State)
	}
}

func TestBroadcastReachesClient(t *testing.T) {
	state.Reset()
	conn, closeAll := dial(t)
	defer closeAll()

	readMessage(t, conn) // initial state

	BroadcastProgress("run-1", 55, "clip.mp4", "Downloading")

	msg := readMessage(t, conn)
	if msg.Type != TypeProgress {
		t.Errorf("Expected type %s, got %s", TypeProgress, msg.Type)
	}
	if msg.Percent != 55 {
		t.Errorf("Expected percent 55, got %v", msg.Percent)
	}
	if msg.File != "clip.mp4" {
		t.Errorf("Expected file clip.mp4, got %s", msg.File)
	}
}

func TestGetStateAction(t *testing.T) {
	state.Reset()
	conn, closeAll := dial(t)
	defer closeAll()

	readMessage(t, conn)

	if err := conn.WriteJSON(types.WSClientMessage{Action: "getState"}); err != nil {
		t.Fatalf("Failed to send action: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != TypeState {
		t.Errorf("Expected type %s, got %s", TypeState, msg.Type)
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("BroadcastToAll panicked: %v", r)
		}
	}()
	BroadcastLine("run-1", "[download] 1%")
}
