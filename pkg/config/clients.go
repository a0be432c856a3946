package config

import (
	"net/http"
	"sync"

	"feed-export/internal/types"

	"github.com/gorilla/websocket"
)

// WebSocket management
var (
	wsClients      = make(map[*types.WSClient]bool)
	wsClientsMutex sync.RWMutex
	upgrader       = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // status page may be opened from any local origin
		},
	}
)

// GetWSMutex returns the WebSocket clients mutex
func GetWSMutex() *sync.RWMutex {
	return &wsClientsMutex
}

// GetWSClients returns a copy of the WebSocket clients map
func GetWSClients() map[*types.WSClient]bool {
	wsClientsMutex.RLock()
	defer wsClientsMutex.RUnlock()

	clients := make(map[*types.WSClient]bool, len(wsClients))
	for k, v := range wsClients {
		clients[k] = v
	}
	return clients
}

// AddWSClient adds a WebSocket client to the global map (thread-safe)
func AddWSClient(client *types.WSClient) {
	wsClientsMutex.Lock()
	wsClients[client] = true
	wsClientsMutex.Unlock()
}

// RemoveWSClient removes a WebSocket client from the global map (thread-safe)
func RemoveWSClient(client *types.WSClient) {
	wsClientsMutex.Lock()
	delete(wsClients, client)
	wsClientsMutex.Unlock()
}

// GetUpgrader returns the WebSocket upgrader
func GetUpgrader() websocket.Upgrader {
	return upgrader
}
