package live

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the stream is read-only and carries no secrets
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades the request into a websocket subscription on the hub.
// The socket is one-way: the hub pushes clip and cycle events, and
// anything the observer sends is drained and dropped.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		log.Printf("[live] ws observer connected: %s", c.ClientIP())

		hub.SubscribeWS(ws)
		defer hub.UnsubscribeWS(ws)

		ws.SetReadLimit(512)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		log.Printf("[live] ws observer disconnected: %s", c.ClientIP())
	}
}
