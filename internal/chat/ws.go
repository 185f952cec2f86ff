package chat

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type incomingMessage struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}

func HistoryHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.History())
	}
}

func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("chat: upgrade failed")
			return
		}

		clientID := uuid.NewString()
		hub.Join(ws, clientID)
		defer hub.Leave(ws)

		for {
			_, payload, err := ws.ReadMessage()
			if err != nil {
				return
			}

			var incoming incomingMessage
			if err := json.Unmarshal(payload, &incoming); err != nil {
				text := strings.TrimSpace(string(payload))
				if text == "" {
					continue
				}
				hub.Broadcast(Message{Text: text, From: clientID})
				continue
			}

			switch incoming.Event {
			case EventPing:
				if err := hub.Pong(ws, time.Now()); err != nil {
					return
				}
			case EventMessage, "":
				text := strings.TrimSpace(incoming.Text)
				if text == "" {
					continue
				}
				hub.Broadcast(Message{Text: text, From: clientID})
			default:
				log.Debug().Str("client_id", clientID).Str("event", incoming.Event).Msg("chat: unknown event")
			}
		}
	}
}
