package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client é uma conexão aberta do lado do servidor. A identidade é
// opcional e só existe depois do handshake de auth; como a entrega é
// sempre broadcast, ela serve para log e diagnóstico.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	identity *livesync.AuthMessage
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 16),
	}
}

func (c *Client) Identity() *livesync.AuthMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Client) bind(msg livesync.AuthMessage) {
	c.mu.Lock()
	c.identity = &msg
	c.mu.Unlock()

	log.Printf("realtime: conexão %s autenticada como %s", c.ID, msg.UserType)
}

// readPump consome frames do cliente. O único frame esperado é o
// handshake de auth; qualquer coisa malformada é logada e descartada
// sem afetar a conexão.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg livesync.AuthMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("realtime: frame inválido de %s descartado: %v", c.ID, err)
			continue
		}

		if msg.Type == livesync.MessageTypeAuth {
			c.bind(msg)
			continue
		}

		// clientes não originam outros tipos de mensagem
		log.Printf("realtime: mensagem %q de %s ignorada", msg.Type, c.ID)
	}
}

// writePump drena a fila de envio e mantém o keepalive por ping.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
