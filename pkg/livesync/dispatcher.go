package livesync

import (
	"encoding/json"
	"log"
	"sync"
)

// ======================================================
// Dispatcher — pub/sub local de eventos
// ======================================================
//
// Desacopla "uma conexão" de "vários interessados": cada parte da
// aplicação assina os tipos de evento que quer, sem tocar no socket.

type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

type Dispatcher struct {
	mu       sync.Mutex
	seq      int
	handlers map[string][]subscription
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registra um handler para um tipo de evento e devolve a
// função de unsubscribe. Unsubscribe é idempotente e pode ser chamado
// durante um dispatch sem risco: o dispatch itera sobre um snapshot.
func (d *Dispatcher) Subscribe(eventType string, fn Handler) func() {
	d.mu.Lock()
	d.seq++
	id := d.seq
	d.handlers[eventType] = append(d.handlers[eventType], subscription{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		subs := d.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				d.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch interpreta um frame bruto como Event e invoca os handlers
// registrados na ordem de inscrição. Payload inválido é logado e
// descartado; pânico em um handler não derruba os demais.
func (d *Dispatcher) Dispatch(raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("livesync: frame inválido descartado: %v", err)
		return
	}

	d.mu.Lock()
	snapshot := append([]subscription(nil), d.handlers[ev.Type]...)
	d.mu.Unlock()

	for _, s := range snapshot {
		invoke(s.fn, ev)
	}
}

func invoke(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("livesync: handler de %q falhou: %v", ev.Type, r)
		}
	}()
	fn(ev)
}
