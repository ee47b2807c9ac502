package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"msgdeck/internal/status"
)

// ReconnectDelay is the fixed pause before every reconnect attempt.
// There is no backoff and no retry cap: a dashboard session is expected
// to outlive any gateway restart.
const ReconnectDelay = 2000 * time.Millisecond

// Conn is the surface the manager needs from a socket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer establishes a socket to the gateway.
type Dialer func(url string) (Conn, error)

// DefaultDialer dials the gateway over a websocket.
func DefaultDialer(url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Handler receives each decoded inbound event, in arrival order.
type Handler func(*Event)

// Manager owns the one persistent gateway socket and its derived
// connection state. Consumers hold the manager, never the socket.
type Manager struct {
	url     string
	dial    Dialer
	machine *status.Machine
	logger  *zap.Logger

	// delay is ReconnectDelay in production; tests shorten it.
	delay time.Duration

	mu        sync.Mutex
	conn      Conn
	handlers  []Handler
	reconnect *time.Timer
	closed    bool
}

// NewManager creates a manager for the given gateway URL.
func NewManager(url string, dial Dialer, machine *status.Machine, logger *zap.Logger) *Manager {
	if dial == nil {
		dial = DefaultDialer
	}
	return &Manager{
		url:     url,
		dial:    dial,
		machine: machine,
		logger:  logger,
		delay:   ReconnectDelay,
	}
}

// OnEvent registers a handler invoked once per decoded frame, in
// arrival order. Register before Connect.
func (m *Manager) OnEvent(h Handler) {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// State returns the current connection state.
func (m *Manager) State() status.State {
	return m.machine.Current()
}

// Connect establishes the gateway socket. A no-op while already
// connected or while another attempt is in flight; a dial failure
// schedules the next attempt and is also reported to the caller.
func (m *Manager) Connect() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if m.machine.Current() == status.Connected {
		return nil
	}
	if err := m.machine.Transition(status.Connecting); err != nil {
		// Another Connect is already in flight.
		return nil
	}

	conn, err := m.dial(m.url)
	if err != nil {
		m.logger.Warn("gateway dial failed", zap.String("url", m.url), zap.Error(err))
		_ = m.machine.Transition(status.Disconnected)
		m.scheduleReconnect()
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	m.conn = conn
	m.mu.Unlock()

	_ = m.machine.Transition(status.Connected)
	m.logger.Info("gateway connected", zap.String("url", m.url))

	go m.readLoop(conn)
	return nil
}

// Close tears the manager down: closes the socket and cancels any
// pending reconnect timer. The manager cannot be reused afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if m.machine.Current() != status.Disconnected {
		_ = m.machine.Transition(status.Disconnected)
	}
	m.logger.Info("gateway manager closed")
}

// readLoop consumes frames until the socket fails. Read errors cover
// both remote close and transport errors; either way the socket is
// force-closed and a reconnect is scheduled.
func (m *Manager) readLoop(conn Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.logger.Warn("gateway connection lost", zap.Error(err))
			m.dropConnection(conn)
			return
		}

		evt, err := Decode(raw)
		if err != nil {
			m.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		if evt == nil {
			continue
		}

		m.mu.Lock()
		handlers := make([]Handler, len(m.handlers))
		copy(handlers, m.handlers)
		m.mu.Unlock()

		for _, h := range handlers {
			h(evt)
		}
	}
}

func (m *Manager) dropConnection(conn Conn) {
	_ = conn.Close()

	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	closed := m.closed
	m.mu.Unlock()

	if m.machine.Current() != status.Disconnected {
		_ = m.machine.Transition(status.Disconnected)
	}
	if !closed {
		m.scheduleReconnect()
	}
}

// scheduleReconnect arms the retry timer. Only Close cancels it; a
// manual Connect does not.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.reconnect = time.AfterFunc(m.delay, func() {
		if err := m.Connect(); err != nil {
			m.logger.Warn("reconnect attempt failed", zap.Error(err))
		}
	})
}
