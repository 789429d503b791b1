package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

// ======================================================
// Hub — registro de conexões + broadcast
// ======================================================
//
// O hub é dono do conjunto de conexões abertas. Não existe entrega
// direcionada: todo evento vai para todas as conexões e cada cliente
// descarta o que não interessa à sua identidade.

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister remove a conexão do conjunto. Remover uma conexão já
// ausente é um no-op, nunca um erro.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast serializa o evento uma vez e enfileira para todas as
// conexões abertas. Cliente com fila cheia perde o evento (sem retry,
// sem fila offline: quem reconecta refaz o estado via REST).
func (h *Hub) Broadcast(ev livesync.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("realtime: evento %q não serializável: %v", ev.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("realtime: fila cheia, descartando %q para conexão %s", ev.Type, c.ID)
		}
	}
}
