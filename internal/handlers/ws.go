package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kubemedic/kubemedic/internal/types"
	"go.uber.org/zap"
)

// Each connection carries its own write mutex: the broadcast path and the
// ping goroutine both write, and the websocket allows one writer at a time.
var (
	executionClients   = make(map[*websocket.Conn]*sync.Mutex)
	executionClientsMu sync.RWMutex
)

func writeToClient(conn *websocket.Conn, mu *sync.Mutex, messageType int, payload interface{}) error {
	mu.Lock()
	defer mu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	if messageType == websocket.PingMessage {
		return conn.WriteMessage(websocket.PingMessage, nil)
	}

	return conn.WriteJSON(payload)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastStepResult pushes a per-step execution result to every connected
// client. Wired as the orchestrator's step observer.
func BroadcastStepResult(incidentID string, result types.StepResult) {
	executionClientsMu.RLock()
	if len(executionClients) == 0 {
		executionClientsMu.RUnlock()
		return
	}

	type client struct {
		conn *websocket.Conn
		mu   *sync.Mutex
	}

	clientsCopy := make([]client, 0, len(executionClients))
	for conn, mu := range executionClients {
		clientsCopy = append(clientsCopy, client{conn, mu})
	}
	executionClientsMu.RUnlock()

	for _, c := range clientsCopy {
		err := writeToClient(c.conn, c.mu, websocket.TextMessage, gin.H{
			"type":        "step_result",
			"incident_id": incidentID,
			"result":      result,
		})

		if err != nil {
			logger.Warn("failed to broadcast step result", zap.Error(err))
			executionClientsMu.Lock()
			delete(executionClients, c.conn)
			executionClientsMu.Unlock()
			c.conn.Close()
		}
	}
}

// ExecutionStream upgrades the connection and streams step results for any
// execution running while the client is connected.
func ExecutionStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}

	executionClientsMu.Lock()
	executionClients[conn] = writeMu
	executionClientsMu.Unlock()

	defer func() {
		executionClientsMu.Lock()
		delete(executionClients, conn)
		executionClientsMu.Unlock()
		conn.Close()
	}()

	if err := writeToClient(conn, writeMu, websocket.TextMessage, gin.H{"type": "connected"}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := writeToClient(conn, writeMu, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}
	}
}
