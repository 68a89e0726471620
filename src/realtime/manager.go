package realtime

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"monitor-observer/src/helpers"
	"monitor-observer/src/interfaces"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
)

// Connection lifecycle states.
const (
	StateIdle       = "idle"
	StateConnecting = "connecting"
	StateOpen       = "open"
	StateClosing    = "closing"
	StateClosed     = "closed"
)

const writeTimeout = 10 * time.Second

// ListenerFunc receives each normalized update event.
type ListenerFunc func(models.MUpdateEvent)

// -----------------------------------------------------------------------------
// Manager owns the single streaming connection shared by every mounted view:
// connect with auth, keep-alive, reconnect with exponential backoff, message
// normalization and listener fan-out. Views register listeners and call Send;
// they never touch the socket. All connection failures are absorbed here and
// retried; nothing transient ever propagates to view code.
// -----------------------------------------------------------------------------

type Manager struct {
	Config  *models.MConfig
	Session interfaces.ISessionProvider
	Logger  *logger.Logger
	Dialer  interfaces.IStreamDialer

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes (data, ping, close frame)

	state      string
	conn       interfaces.IStreamConn
	connGen    int // bumped per connection so stale read loops are ignored
	deliberate bool

	attempts       int
	reconnectTimer *time.Timer
	keepAliveStop  chan struct{}

	listeners      map[int]ListenerFunc
	openListeners  map[int]func()
	nextListenerID int

	unsubAuth func()
}

// -----------------------------------------------------------------------------

// NewManager creates the channel manager and couples it to the session
// provider: sign-in triggers a connect, sign-out a deliberate close.
func NewManager(cfg *models.MConfig, sess interfaces.ISessionProvider, log *logger.Logger, dialer interfaces.IStreamDialer) *Manager {
	if dialer == nil {
		dialer = GorillaDialer{}
	}

	m := &Manager{
		Config:        cfg,
		Session:       sess,
		Logger:        log,
		Dialer:        dialer,
		state:         StateIdle,
		listeners:     make(map[int]ListenerFunc),
		openListeners: make(map[int]func()),
	}

	m.unsubAuth = sess.OnAuthStateChange(func(event string, _ *models.MSession) {
		switch event {
		case models.AuthSignedIn:
			if err := m.EnsureConnected(); err != nil {
				m.Logger.Warning("connect after sign-in failed: %v", err)
			}
		case models.AuthSignedOut:
			m.Close("logout")
		}
	})

	return m
}

// -----------------------------------------------------------------------------

// State returns the current connection lifecycle state.
func (m *Manager) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// -----------------------------------------------------------------------------

// EnsureConnected is idempotent: when a connection is open or already being
// established it returns immediately. Otherwise it acquires a token (bounded
// wait; AuthRequired when none materializes), derives the stream address and
// dials. Dial failures are absorbed into the reconnect loop, never returned.
func (m *Manager) EnsureConnected() error {
	m.mu.Lock()
	if m.state == StateOpen || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.state = StateConnecting
	m.deliberate = false
	m.mu.Unlock()

	return m.connect()
}

// -----------------------------------------------------------------------------

func (m *Manager) connect() error {
	wait := time.Duration(m.Config.API.TokenWaitSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	token, err := m.Session.Token(ctx)
	if err != nil {
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		return err
	}

	streamURL, err := DeriveStreamURL(m.Config.API.BaseURL, token)
	if err != nil {
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		return err
	}

	conn, err := m.Dialer.Dial(ctx, streamURL)
	if err != nil {
		m.Logger.Warning("stream dial failed: %v", err)
		m.mu.Lock()
		m.state = StateClosed
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	if m.deliberate {
		// Close() raced the dial; honor it.
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.conn = conn
	m.connGen++
	gen := m.connGen
	m.state = StateOpen
	m.attempts = 0
	stop := make(chan struct{})
	m.keepAliveStop = stop
	m.mu.Unlock()

	m.Logger.Info("stream connected")

	// Open listeners run before the read loop starts so resubscription is
	// the first outbound traffic on the fresh connection.
	m.fireOpen()

	go m.keepAlive(stop)
	go m.readLoop(conn, gen)

	return nil
}

// -----------------------------------------------------------------------------

// Send transmits one message, best-effort: when the connection is not open
// the message is dropped (never queued) and callers compensate by resending
// on the next open notification.
func (m *Manager) Send(msg interface{}) error {
	m.mu.Lock()
	conn := m.conn
	state := m.state
	m.mu.Unlock()

	if state != StateOpen || conn == nil {
		m.Logger.Debug("send dropped, connection not open")
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return helpers.NewMalformedMessage("outbound message not serializable", err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return helpers.NewTransientNetwork("stream write failed", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// AddListener registers an update-event callback and returns its handle.
func (m *Manager) AddListener(fn ListenerFunc) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListenerID
	m.nextListenerID++
	m.listeners[id] = fn
	return id
}

// -----------------------------------------------------------------------------

// RemoveListener unregisters a callback. Safe to call from inside a listener:
// a handle removed mid-emission is skipped for the event being delivered.
func (m *Manager) RemoveListener(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

// -----------------------------------------------------------------------------

// OnOpen registers a callback invoked on every successful open, including
// reconnects. Returns a handle for RemoveOnOpen.
func (m *Manager) OnOpen(fn func()) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListenerID
	m.nextListenerID++
	m.openListeners[id] = fn
	return id
}

// -----------------------------------------------------------------------------

func (m *Manager) RemoveOnOpen(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.openListeners, id)
}

// -----------------------------------------------------------------------------

// Close tears the connection down deliberately: pending reconnects are
// cancelled, the retry counter cleared, and no retry is scheduled.
func (m *Manager) Close(reason string) {
	m.mu.Lock()
	m.deliberate = true
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.attempts = 0
	conn := m.conn
	m.conn = nil
	m.connGen++
	if m.keepAliveStop != nil {
		close(m.keepAliveStop)
		m.keepAliveStop = nil
	}
	if conn != nil {
		m.state = StateClosing
	} else {
		m.state = StateClosed
	}
	m.mu.Unlock()

	if conn != nil {
		frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		m.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		conn.WriteMessage(websocket.CloseMessage, frame)
		m.writeMu.Unlock()
		conn.Close()

		m.mu.Lock()
		m.state = StateClosed
		m.mu.Unlock()
	}

	m.Logger.Info("stream closed: %s", reason)
}

// -----------------------------------------------------------------------------

// Shutdown detaches from the session provider and closes the connection.
func (m *Manager) Shutdown() {
	if m.unsubAuth != nil {
		m.unsubAuth()
	}
	m.Close("shutdown")
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

func (m *Manager) readLoop(conn interfaces.IStreamConn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClosed(conn, gen, err)
			return
		}
		m.handleMessage(data)
	}
}

// -----------------------------------------------------------------------------

func (m *Manager) handleClosed(conn interfaces.IStreamConn, gen int, err error) {
	m.mu.Lock()
	if m.connGen != gen || m.conn != conn {
		// A deliberate Close or a newer connection already took over.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	if m.keepAliveStop != nil {
		close(m.keepAliveStop)
		m.keepAliveStop = nil
	}
	m.state = StateClosed
	m.scheduleReconnectLocked()
	m.mu.Unlock()

	conn.Close()
	m.Logger.Warning("stream lost: %v", err)
}

// -----------------------------------------------------------------------------

// scheduleReconnectLocked arms the single reconnect timer. Callers hold m.mu.
func (m *Manager) scheduleReconnectLocked() {
	if m.reconnectTimer != nil || m.deliberate {
		return
	}

	m.attempts++
	base := time.Duration(m.Config.Realtime.ReconnectBaseSeconds) * time.Second
	max := time.Duration(m.Config.Realtime.ReconnectMaxSeconds) * time.Second
	delay := BackoffDelay(m.attempts, base, max)
	m.Logger.Info("reconnect attempt %d in %v", m.attempts, delay)

	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		m.reconnectTimer = nil
		if m.deliberate || m.state == StateOpen || m.state == StateConnecting {
			m.mu.Unlock()
			return
		}
		m.state = StateConnecting
		m.mu.Unlock()

		if err := m.connect(); err != nil {
			// Token went away while we were disconnected; the next
			// sign-in notification restarts the connection.
			m.Logger.Warning("reconnect aborted: %v", err)
		}
	})
}

// -----------------------------------------------------------------------------

func (m *Manager) keepAlive(stop chan struct{}) {
	interval := time.Duration(m.Config.Realtime.KeepAliveSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := m.Send(models.MClientMessage{Type: models.MsgPing}); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (m *Manager) handleMessage(data []byte) {
	events, control, err := Normalize(data)
	if err != nil {
		// Dropped per payload; the connection and other traffic are fine.
		m.Logger.Debug("dropping malformed payload: %v", err)
		return
	}

	if control == models.MsgPing {
		if err := m.Send(models.MClientMessage{Type: models.MsgPong}); err != nil {
			m.Logger.Debug("pong failed: %v", err)
		}
		return
	}

	for _, e := range events {
		m.emit(e)
	}
}

// -----------------------------------------------------------------------------

// emit delivers one event to every registered listener. The registry is
// snapshotted first so listeners may add or remove handles mid-emission; a
// handle removed by an earlier listener is skipped. A panicking listener
// never breaks delivery to the rest.
func (m *Manager) emit(e models.MUpdateEvent) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Ints(ids) // registration order

	for _, id := range ids {
		m.mu.Lock()
		fn, ok := m.listeners[id]
		m.mu.Unlock()
		if !ok {
			continue
		}
		m.invoke(fn, e)
	}
}

// -----------------------------------------------------------------------------

func (m *Manager) invoke(fn ListenerFunc, e models.MUpdateEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.Logger.Error("listener panic on sensor %d update: %v", e.SensorID, r)
		}
	}()
	fn(e)
}

// -----------------------------------------------------------------------------

func (m *Manager) fireOpen() {
	m.mu.Lock()
	ids := make([]int, 0, len(m.openListeners))
	for id := range m.openListeners {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Ints(ids)

	for _, id := range ids {
		m.mu.Lock()
		fn, ok := m.openListeners[id]
		m.mu.Unlock()
		if !ok {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.Logger.Error("open listener panic: %v", r)
				}
			}()
			fn()
		}()
	}
}
