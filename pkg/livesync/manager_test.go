package livesync_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

// wsServer aceita conexões, lê a primeira mensagem de cada uma e a
// publica em auths. dropAfterAuth derruba a conexão logo depois do
// handshake, para exercitar o caminho de reconexão.
type wsServer struct {
	srv   *httptest.Server
	auths chan livesync.AuthMessage
}

func newWSServer(t *testing.T, dropFirstN int) *wsServer {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	ws := &wsServer{
		auths: make(chan livesync.AuthMessage, 8),
	}

	var accepted int

	ws.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var msg livesync.AuthMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return
		}
		ws.auths <- msg

		accepted++
		if accepted <= dropFirstN {
			conn.Close()
			return
		}

		// segura a conexão aberta até o cliente fechar
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))

	t.Cleanup(ws.srv.Close)
	return ws
}

func (ws *wsServer) url() string {
	return "ws" + strings.TrimPrefix(ws.srv.URL, "http")
}

func waitAuth(t *testing.T, ws *wsServer) livesync.AuthMessage {
	t.Helper()

	select {
	case msg := <-ws.auths:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timeout esperando handshake")
		return livesync.AuthMessage{}
	}
}

func TestManagerSendsHandshakeFirst(t *testing.T) {
	ws := newWSServer(t, 0)

	m := livesync.NewManager(livesync.Options{
		URL:      ws.url(),
		Identity: livesync.Identity{UserType: livesync.UserTypeDoctor, DoctorID: 7},
	})
	defer m.Close()

	m.Connect()

	msg := waitAuth(t, ws)
	assert.Equal(t, livesync.MessageTypeAuth, msg.Type)
	assert.Equal(t, livesync.UserTypeDoctor, msg.UserType)
	assert.Equal(t, "7", msg.DoctorID)
}

func TestManagerConnectIsIdempotent(t *testing.T) {
	ws := newWSServer(t, 0)

	m := livesync.NewManager(livesync.Options{
		URL:      ws.url(),
		Identity: livesync.Identity{UserType: livesync.UserTypeDoctor, DoctorID: 7},
	})
	defer m.Close()

	m.Connect()
	waitAuth(t, ws)

	// já aberto: não deve abrir uma segunda conexão
	m.Connect()
	m.Connect()

	select {
	case <-ws.auths:
		t.Fatal("Connect com conexão aberta abriu outra conexão")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManagerReconnectsAndResendsHandshake(t *testing.T) {
	ws := newWSServer(t, 1) // derruba a primeira conexão após o auth

	m := livesync.NewManager(livesync.Options{
		URL:       ws.url(),
		Identity:  livesync.Identity{UserType: livesync.UserTypePatient, PatientEmail: "ana@example.com"},
		BaseDelay: 10 * time.Millisecond,
		MaxJitter: time.Millisecond,
	})
	defer m.Close()

	m.Connect()

	first := waitAuth(t, ws)
	second := waitAuth(t, ws) // reconexão refaz o handshake do zero

	assert.Equal(t, first, second)
	assert.Equal(t, "ana@example.com", second.PatientID)
}

func TestManagerCloseStopsReconnect(t *testing.T) {
	ws := newWSServer(t, 0)

	m := livesync.NewManager(livesync.Options{
		URL:       ws.url(),
		Identity:  livesync.Identity{UserType: livesync.UserTypeDoctor, DoctorID: 1},
		BaseDelay: 5 * time.Millisecond,
		MaxJitter: time.Millisecond,
	})

	m.Connect()
	waitAuth(t, ws)

	require.NoError(t, m.Close())
	assert.Equal(t, livesync.StateClosed, m.State())

	select {
	case <-ws.auths:
		t.Fatal("fechamento deliberado não pode reconectar")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManagerStaleTimerDoesNotSurviveNewCycle(t *testing.T) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	var (
		mu        sync.Mutex
		failFirst = true
	)
	auths := make(chan livesync.AuthMessage, 8)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fail := failFirst
		failFirst = false
		mu.Unlock()

		// a primeira tentativa falha para agendar o timer de retry
		if fail {
			http.Error(w, "indisponível", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var msg livesync.AuthMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return
		}
		auths <- msg

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	m := livesync.NewManager(livesync.Options{
		URL:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		Identity:  livesync.Identity{UserType: livesync.UserTypeDoctor, DoctorID: 7},
		BaseDelay: 400 * time.Millisecond,
		MaxJitter: time.Millisecond,
	})
	defer m.Close()

	m.Connect()

	// espera a primeira tentativa falhar e o retry ficar agendado
	time.Sleep(100 * time.Millisecond)

	// logout + login enquanto o timer do ciclo antigo ainda está vivo
	require.NoError(t, m.Close())
	m.Connect()

	select {
	case msg := <-auths:
		assert.Equal(t, "7", msg.DoctorID)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout esperando o handshake do novo ciclo")
	}

	// o timer antigo dispararia dentro desta janela; não pode discar
	select {
	case <-auths:
		t.Fatal("timer de um ciclo encerrado abriu uma segunda conexão")
	case <-time.After(800 * time.Millisecond):
	}
}

func TestManagerGivesUpAfterMaxAttempts(t *testing.T) {
	states := make(chan livesync.State, 16)

	m := livesync.NewManager(livesync.Options{
		// porta reservada para nunca aceitar conexão
		URL:         "ws://127.0.0.1:1/ws",
		Identity:    livesync.Identity{UserType: livesync.UserTypeDoctor, DoctorID: 1},
		BaseDelay:   time.Millisecond,
		MaxJitter:   time.Millisecond,
		MaxAttempts: 2,
		OnStateChange: func(s livesync.State) {
			states <- s
		},
	})
	defer m.Close()

	m.Connect()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-states:
			if s == livesync.StateDisconnected {
				return // degradou como esperado
			}
		case <-deadline:
			t.Fatal("timeout esperando o esgotamento das tentativas")
		}
	}
}
