package livesync

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ======================================================
// Manager — uma conexão viva por processo
// ======================================================

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
	StateClosed       State = "closed"
)

type Options struct {
	// URL do endpoint WebSocket (ver Endpoint)
	URL string

	// Identidade autenticada; o handshake é reenviado a cada reconexão
	Identity Identity

	BaseDelay   time.Duration
	MaxJitter   time.Duration
	MaxAttempts int

	HandshakeTimeout time.Duration

	// OnStateChange é o indicador passivo de conectividade.
	// Não pode bloquear.
	OnStateChange func(State)
}

// Manager mantém exatamente uma conexão com o servidor, refaz o
// handshake a cada reconexão e alimenta o Dispatcher com os frames
// recebidos. Erros de transporte nunca sobem: a conexão é forçada a
// fechar e a reconexão com backoff assume.
type Manager struct {
	opts       Options
	dialer     *websocket.Dialer
	dispatcher *Dispatcher

	mu       sync.Mutex
	state    State
	attempts int
	conn     *websocket.Conn
	closed   bool

	// gen identifica o ciclo de conexão corrente. Connect e Close
	// incrementam; dial e o timer de reconexão carregam o gen do
	// ciclo que os agendou e abortam se ele mudou, para um timer
	// pendente de um ciclo encerrado nunca abrir uma segunda conexão.
	gen uint64
}

func NewManager(opts Options) *Manager {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxJitter < 0 {
		opts.MaxJitter = DefaultMaxJitter
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}

	return &Manager{
		opts: opts,
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		dispatcher: NewDispatcher(),
		state:      StateDisconnected,
	}
}

func (m *Manager) Dispatcher() *Dispatcher {
	return m.dispatcher
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect abre a conexão em background. É idempotente: chamado com a
// conexão já aberta (ou abrindo) não faz nada. Depois de um Close ou
// do esgotamento das tentativas, Connect rearma o ciclo do zero.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateOpen {
		m.mu.Unlock()
		return
	}

	m.closed = false
	m.attempts = 0
	m.gen++
	gen := m.gen
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	go m.dial(gen)
}

// Close encerra deliberadamente (logout): fecha o transporte e
// desliga a reconexão automática.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.gen++
	conn := m.conn
	m.conn = nil
	m.setStateLocked(StateClosed)
	m.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (m *Manager) dial(gen uint64) {
	conn, resp, err := m.dialer.Dial(m.opts.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		log.Printf("livesync: conexão falhou: %v", err)
		m.scheduleReconnect(gen)
		return
	}

	// handshake primeiro, antes de qualquer outra mensagem
	if err := conn.WriteJSON(m.opts.Identity.AuthMessage()); err != nil {
		log.Printf("livesync: handshake falhou: %v", err)
		conn.Close()
		m.scheduleReconnect(gen)
		return
	}

	m.mu.Lock()
	if m.closed || gen != m.gen {
		// ciclo encerrado (Close) ou substituído (novo Connect)
		// enquanto discávamos
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.attempts = 0 // conexão aberta zera o contador
	m.setStateLocked(StateOpen)
	m.mu.Unlock()

	m.readLoop(conn, gen)
}

func (m *Manager) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// força o fechamento para garantir que o caminho de
			// reconexão sempre rode
			conn.Close()

			m.mu.Lock()
			if m.conn == conn {
				m.conn = nil
			}
			stale := m.closed || gen != m.gen
			m.mu.Unlock()

			if !stale {
				log.Printf("livesync: conexão perdida: %v", err)
				m.scheduleReconnect(gen)
			}
			return
		}

		m.dispatcher.Dispatch(raw)
	}
}

func (m *Manager) scheduleReconnect(gen uint64) {
	m.mu.Lock()
	if m.closed {
		m.setStateLocked(StateClosed)
		m.mu.Unlock()
		return
	}
	if gen != m.gen {
		// um novo Connect assumiu; este ciclo não agenda mais nada
		m.mu.Unlock()
		return
	}

	m.attempts++
	if m.attempts > m.opts.MaxAttempts {
		// degradado: sem atualizações ao vivo, REST segue funcionando
		log.Printf("livesync: %d tentativas esgotadas, desistindo", m.opts.MaxAttempts)
		m.setStateLocked(StateDisconnected)
		m.mu.Unlock()
		return
	}

	attempt := m.attempts
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	delay := Delay(attempt, m.opts.BaseDelay, m.opts.MaxJitter)
	log.Printf("livesync: reconectando em %s (tentativa %d/%d)", delay, attempt, m.opts.MaxAttempts)

	time.AfterFunc(delay, func() {
		m.mu.Lock()
		if m.closed || gen != m.gen {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		m.dial(gen)
	})
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s

	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(s)
	}
}
