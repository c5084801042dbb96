package sync

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-user tool served on a local address.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades GET /ws and keeps the socket in the hub until the page
// goes away.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade: %v", err)
			return
		}

		// Must precede AddWS: a conn allows one writer at a time.
		if err := ws.WriteMessage(websocket.TextMessage, hub.welcome(TransportWebSocket)); err != nil {
			log.Printf("[ws] welcome %s: %v", c.ClientIP(), err)
			_ = ws.Close()
			return
		}
		hub.AddWS(ws)
		log.Printf("[ws] listener connected: %s", c.ClientIP())

		// Pages never send anything; reading only detects the close.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Printf("[ws] listener gone: %s", c.ClientIP())
	}
}
