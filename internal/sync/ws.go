package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
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

func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		// welcome goes out before the hub can write to ws
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome","transport":"websocket"}`))

		hub.AddWS(ws)
		log.Debug().Str("remote", c.ClientIP()).Msg("[ws] feed client connected")

		// incoming frames are ignored; reading detects the close
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Debug().Str("remote", c.ClientIP()).Msg("[ws] feed client disconnected")
	}
}
