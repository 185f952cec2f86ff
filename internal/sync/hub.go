package sync

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 2 * time.Second

// Hub fans manga events out to every connected websocket client.
type Hub struct {
	mu        sync.Mutex
	wsClients map[*websocket.Conn]struct{}
}

type Stats struct {
	WSClients int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{wsClients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish satisfies the pipeline's event sink.
func (h *Hub) Publish(ev MangaEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.BroadcastJSON(ev)
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.wsClients)}
}
