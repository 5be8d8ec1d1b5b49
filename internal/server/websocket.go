package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// handleWebSocket streams binary frames to the client. Text messages from the client
// are JSON objects of parameter updates.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log().Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer s.removeClient(conn)

	s.log().Info("WebSocket client connected", "remote", r.RemoteAddr)

	// Send the current frame right away so clients need not wait for a tick.
	t := s.now()
	verts, err := s.engine.Evaluate(r.Context(), t, s.effectiveParams(), nil)
	if err == nil {
		if err := s.write(conn, connMu, websocket.BinaryMessage, encodeBinaryFrame(t, verts)); err != nil {
			s.log().Warn("WebSocket write failed", "error", err)
			return
		}
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log().Warn("WebSocket read failed", "error", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var values map[string]any
		if err := json.Unmarshal(data, &values); err != nil {
			s.log().Warn("Ignoring malformed websocket message", "error", err)
			continue
		}
		s.applyUpdate(values)
	}

	s.log().Info("WebSocket client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) write(conn *websocket.Conn, mu *sync.Mutex, msgType int, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(msgType, data)
}

// broadcast sends data to every client and drops the ones that fail.
func (s *Server) broadcast(data []byte) {
	var failed []*websocket.Conn

	s.clientsMu.RLock()
	for conn, mu := range s.clients {
		if err := s.write(conn, mu, websocket.BinaryMessage, data); err != nil {
			s.log().Warn("WebSocket write failed", "error", err)
			failed = append(failed, conn)
		}
	}
	s.clientsMu.RUnlock()

	for _, conn := range failed {
		conn.Close()
		s.removeClient(conn)
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
}

func (s *Server) clientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn, mu := range s.clients {
		mu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		mu.Unlock()
		conn.Close()
		delete(s.clients, conn)
	}
}
