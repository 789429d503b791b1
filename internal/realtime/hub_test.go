package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

// cliente sem socket: Broadcast só toca na fila de envio
func testClient(buffer int) *Client {
	return &Client{
		ID:   "test",
		send: make(chan []byte, buffer),
	}
}

func TestHubRegisterAndCount(t *testing.T) {
	h := NewHub()
	assert.Zero(t, h.Count())

	a := testClient(1)
	b := testClient(1)

	h.Register(a)
	h.Register(b)
	assert.Equal(t, 2, h.Count())

	h.Unregister(a)
	assert.Equal(t, 1, h.Count())
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	h := NewHub()
	c := testClient(1)

	h.Register(c)
	h.Unregister(c)

	// segunda remoção não pode fechar o canal de novo nem entrar em pânico
	assert.NotPanics(t, func() { h.Unregister(c) })
	assert.Zero(t, h.Count())
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	h := NewHub()

	a := testClient(4)
	b := testClient(4)
	h.Register(a)
	h.Register(b)

	ev, err := livesync.NewEvent(livesync.EventAppointmentCreated, map[string]uint{"id": 1})
	require.NoError(t, err)

	h.Broadcast(ev)

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.send:
			var got livesync.Event
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, livesync.EventAppointmentCreated, got.Type)
		default:
			t.Fatal("cliente registrado não recebeu o broadcast")
		}
	}
}

func TestHubBroadcastDropsWhenQueueFull(t *testing.T) {
	h := NewHub()

	slow := testClient(1)
	fast := testClient(4)
	h.Register(slow)
	h.Register(fast)

	ev, err := livesync.NewEvent(livesync.EventAppointmentUpdated, map[string]uint{"id": 1})
	require.NoError(t, err)

	// duas mensagens: a segunda não cabe na fila do cliente lento
	h.Broadcast(ev)
	h.Broadcast(ev)

	assert.Len(t, slow.send, 1, "fila cheia descarta em vez de bloquear")
	assert.Len(t, fast.send, 2)
}

func TestHubBroadcastAfterUnregister(t *testing.T) {
	h := NewHub()

	c := testClient(1)
	h.Register(c)
	h.Unregister(c)

	ev, err := livesync.NewEvent(livesync.EventAppointmentCreated, nil)
	require.NoError(t, err)

	// broadcast para hub vazio não entra em pânico (canal já fechado)
	assert.NotPanics(t, func() { h.Broadcast(ev) })
}
