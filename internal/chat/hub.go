package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const defaultHistorySize = 50

const (
	EventPing    = "ping"
	EventPong    = "pong"
	EventMessage = "message"
)

type Message struct {
	Event string    `json:"event"`
	Text  string    `json:"text"`
	From  string    `json:"from"`
	At    time.Time `json:"at"`
}

type pong struct {
	Event string `json:"event"`
	Now   int64  `json:"now"`
}

// Hub fans chat messages out to every connected client. All socket writes
// happen under mu so a connection never sees concurrent writers.
type Hub struct {
	mu          sync.Mutex
	clients     map[*websocket.Conn]string
	history     []Message
	historySize int
}

func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		clients:     make(map[*websocket.Conn]string),
		historySize: historySize,
	}
}

func (h *Hub) Join(ws *websocket.Conn, clientID string) {
	h.mu.Lock()
	h.clients[ws] = clientID
	n := len(h.clients)
	h.mu.Unlock()
	log.Info().Str("client_id", clientID).Int("clients", n).Msg("chat client connected")
}

func (h *Hub) Leave(ws *websocket.Conn) {
	h.mu.Lock()
	clientID, ok := h.clients[ws]
	delete(h.clients, ws)
	n := len(h.clients)
	h.mu.Unlock()

	_ = ws.Close()
	if ok {
		log.Info().Str("client_id", clientID).Int("clients", n).Msg("chat client disconnected")
	}
}

// Broadcast records msg in history and sends it to all clients.
func (h *Hub) Broadcast(msg Message) {
	msg.Event = EventMessage
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("chat: marshal message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, msg)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}

	for ws, id := range h.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Debug().Err(err).Str("client_id", id).Msg("chat: dropping client")
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

// Pong replies to a ping on ws only.
func (h *Hub) Pong(ws *websocket.Conn, now time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return ws.WriteJSON(pong{Event: EventPong, Now: now.UnixMilli()})
}

func (h *Hub) History() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message{}, h.history...)
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
