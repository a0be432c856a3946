package websocket

import (
	"net/http"
	"sync"

	"feed-export/internal/state"
	"feed-export/internal/types"
	"feed-export/pkg/config"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Message types sent to clients
const (
	TypeState    = "state"
	TypeYtdlp    = "ytdlp_update"
	TypeProgress = "progress"
	TypeLog      = "log"
	TypeDone     = "done"
	TypeError    = "error"
)

// WSHandler handles WebSocket connections
func WSHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := config.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &types.WSClient{
		Conn: conn,
		Mu:   sync.Mutex{},
	}

	config.AddWSClient(client)
	defer func() {
		config.RemoveWSClient(client)
		conn.Close()
	}()

	logrus.Info("New WebSocket client connected")

	// Send current run state to the new client
	sendState(client)

	for {
		var msg types.WSClientMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Error("WebSocket error")
			}
			break
		}

		logrus.WithField("action", msg.Action).Debug("WebSocket message received")

		switch msg.Action {
		case "getState":
			sendState(client)
		default:
			logrus.WithField("action", msg.Action).Warn("Unknown WebSocket action")
		}
	}

	logrus.Info("WebSocket client disconnected")
}

func sendState(client *types.WSClient) {
	snap := state.Snapshot()
	client.Mu.Lock()
	defer client.Mu.Unlock()
	if err := client.Conn.WriteJSON(types.WSMessage{Type: TypeState, RunID: snap.RunID, State: &snap}); err != nil {
		logrus.WithError(err).Warn("Failed to send state to WebSocket client")
	}
}

// BroadcastToAll sends a message to all WebSocket clients
func BroadcastToAll(msg types.WSMessage) {
	clients := config.GetWSClients()

	logrus.WithFields(logrus.Fields{
		"message_type": msg.Type,
		"client_count": len(clients),
	}).Debug("Broadcasting message to WebSocket clients")

	if len(clients) == 0 {
		return
	}

	var wg sync.WaitGroup
	for client := range clients {
		wg.Add(1)
		go func(c *types.WSClient) {
			defer wg.Done()
			c.Mu.Lock()
			defer c.Mu.Unlock()
			if err := c.Conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).Warn("Failed to send WebSocket message to client")
			}
		}(client)
	}
	wg.Wait()
}

// BroadcastState sends the current run state to all clients
func BroadcastState() {
	snap := state.Snapshot()
	BroadcastToAll(types.WSMessage{Type: TypeState, RunID: snap.RunID, State: &snap})
}

// BroadcastProgress sends a progress update for the current run
func BroadcastProgress(runID string, percent float64, file, message string) {
	BroadcastToAll(types.WSMessage{
		Type:    TypeProgress,
		RunID:   runID,
		Percent: percent,
		File:    file,
		Message: message,
	})
}

// BroadcastLine forwards one line of tool output
func BroadcastLine(runID, line string) {
	BroadcastToAll(types.WSMessage{Type: TypeLog, RunID: runID, Line: line})
}
