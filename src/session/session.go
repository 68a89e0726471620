package session

import (
	"context"
	"sync"

	"monitor-observer/src/helpers"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// Manager holds the current authenticated session. The actual token
// acquisition protocol is an external collaborator: whoever owns the login
// flow calls SetSession / SignOut, and an app startup that restores a
// persisted session brackets it with BeginRestore / CompleteRestore so that
// Token() callers wait for the outcome instead of failing early.
// -----------------------------------------------------------------------------

type Manager struct {
	Logger *logger.Logger

	mu        sync.Mutex
	session   *models.MSession
	restoring chan struct{} // non-nil while a restore is in flight
	listeners map[int]func(event string, session *models.MSession)
	nextID    int
}

// -----------------------------------------------------------------------------

func NewManager(log *logger.Logger) *Manager {
	return &Manager{
		Logger:    log,
		listeners: make(map[int]func(string, *models.MSession)),
	}
}

// -----------------------------------------------------------------------------

// GetSession returns the current session, or nil when signed out.
func (m *Manager) GetSession() *models.MSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// -----------------------------------------------------------------------------

// BeginRestore marks a session restore as in progress. Token() calls made
// before CompleteRestore will wait for it (bounded by their context).
func (m *Manager) BeginRestore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restoring == nil {
		m.restoring = make(chan struct{})
	}
}

// -----------------------------------------------------------------------------

// CompleteRestore finishes an in-progress restore. A nil session means the
// restore found nothing usable; no auth event fires in that case.
func (m *Manager) CompleteRestore(s *models.MSession) {
	m.mu.Lock()
	if m.restoring != nil {
		close(m.restoring)
		m.restoring = nil
	}
	m.session = s
	fns := m.snapshotListeners()
	m.mu.Unlock()

	if s.Valid() {
		m.Logger.Info("Session restored for user %s", s.UserID)
		for _, fn := range fns {
			fn(models.AuthSignedIn, s)
		}
	}
}

// -----------------------------------------------------------------------------

// SetSession installs a fresh session (login or token refresh) and notifies
// subscribers of the signed_in transition.
func (m *Manager) SetSession(s *models.MSession) {
	m.mu.Lock()
	m.session = s
	fns := m.snapshotListeners()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(models.AuthSignedIn, s)
	}
}

// -----------------------------------------------------------------------------

// SignOut clears the session and notifies subscribers.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	m.session = nil
	fns := m.snapshotListeners()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(models.AuthSignedOut, nil)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Token returns a usable access token, waiting out an in-progress restore.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	restoring := m.restoring
	s := m.session
	m.mu.Unlock()

	if s.Valid() {
		return s.AccessToken, nil
	}

	if restoring != nil {
		select {
		case <-restoring:
			m.mu.Lock()
			s = m.session
			m.mu.Unlock()
			if s.Valid() {
				return s.AccessToken, nil
			}
		case <-ctx.Done():
			return "", helpers.NewAuthRequired("session restore did not finish in time")
		}
	}

	return "", helpers.NewAuthRequired("no authenticated session")
}

// -----------------------------------------------------------------------------

// OnAuthStateChange registers an auth transition callback. The returned
// function unsubscribes; it is safe to call from within a callback.
func (m *Manager) OnAuthStateChange(fn func(event string, session *models.MSession)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// -----------------------------------------------------------------------------

// snapshotListeners copies the callback set so emission never iterates the
// live map. Callers must hold m.mu.
func (m *Manager) snapshotListeners() []func(string, *models.MSession) {
	fns := make([]func(string, *models.MSession), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	return fns
}
