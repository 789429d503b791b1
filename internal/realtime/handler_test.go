package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	hub := NewHub()
	r := gin.New()
	r.GET("/ws", ServeWS(hub))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func waitCount(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub não chegou a %d conexões (atual: %d)", want, hub.Count())
}

func TestServeWSBroadcastReachesEveryConnection(t *testing.T) {
	hub, url := startServer(t)

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		defer conn.Close()
		conns = append(conns, conn)
	}

	waitCount(t, hub, 3)

	ev, err := livesync.NewEvent(livesync.EventAppointmentCreated, livesync.AppointmentRecord{
		ID: 1, DoctorID: 7, Status: "pending",
	})
	require.NoError(t, err)

	hub.Broadcast(ev)

	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var got livesync.Event
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, livesync.EventAppointmentCreated, got.Type)
	}
}

func TestServeWSUnregistersOnDisconnect(t *testing.T) {
	hub, url := startServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	waitCount(t, hub, 1)

	conn.Close()
	waitCount(t, hub, 0)
}

func TestServeWSBindsIdentityFromHandshake(t *testing.T) {
	hub, url := startServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	waitCount(t, hub, 1)

	require.NoError(t, conn.WriteJSON(livesync.AuthMessage{
		Type:     livesync.MessageTypeAuth,
		UserType: livesync.UserTypeDoctor,
		DoctorID: "7",
	}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		for c := range hub.clients {
			if id := c.Identity(); id != nil {
				hub.mu.RUnlock()
				assert.Equal(t, livesync.UserTypeDoctor, id.UserType)
				assert.Equal(t, "7", id.DoctorID)
				return
			}
		}
		hub.mu.RUnlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("handshake não vinculou a identidade")
}

func TestServeWSMalformedFrameKeepsConnection(t *testing.T) {
	hub, url := startServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	waitCount(t, hub, 1)

	// frame inválido é descartado sem derrubar a conexão
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	ev, err := livesync.NewEvent(livesync.EventAppointmentUpdated, nil)
	require.NoError(t, err)

	// dá tempo do readPump processar o frame ruim antes do broadcast
	time.Sleep(50 * time.Millisecond)
	hub.Broadcast(ev)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got livesync.Event
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, livesync.EventAppointmentUpdated, got.Type)
}
