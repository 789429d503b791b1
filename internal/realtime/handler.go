package realtime

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origem liberada, como no CORS do resto da API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS faz o upgrade da conexão e registra no hub.
func ServeWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("realtime: upgrade falhou: %v", err)
			return
		}

		client := newClient(hub, conn)
		hub.Register(client)

		go client.writePump()
		go client.readPump()
	}
}
