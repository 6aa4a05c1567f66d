// Package sessions tracks the screening sessions currently on the line.
// Each session is registered under its id for the life of one call; the
// manager supports ending individual sessions, warning or ending all of
// them on drain, and waiting for the registry to empty.
package sessions

import (
	"context"
	"errors"
	"sync"
)

// ErrDuplicateSession is returned when a session id is already registered.
var ErrDuplicateSession = errors.New("session id already active")

// ErrUnknownSession is returned when no session has the given id.
var ErrUnknownSession = errors.New("unknown session")

// ErrDraining is returned when registration is refused during shutdown.
var ErrDraining = errors.New("server is draining")

// Handle is what the manager can do to a live session.
type Handle struct {
	// End asks the session to finish and record an abandoned outcome with
	// the given reason. It must be idempotent.
	End func(reason string)
	// Warn notifies the session's caller, best effort.
	Warn func(code, message string) error
}

// Manager is a concurrency-safe session registry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	draining bool
	wg       sync.WaitGroup
}

type entry struct {
	handle Handle
	once   sync.Once
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*entry)}
}

// Register adds a session under id and returns its unregister func, which
// is safe to call more than once. Registration fails for a duplicate id or
// while draining; a session id is never silently taken over.
func (m *Manager) Register(id string, h Handle) (unregister func(), err error) {
	e := &entry{handle: h}

	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return nil, ErrDraining
	}
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return nil, ErrDuplicateSession
	}
	m.sessions[id] = e
	m.wg.Add(1)
	m.mu.Unlock()

	return func() { m.unregister(id, e) }, nil
}

func (m *Manager) unregister(id string, e *entry) {
	e.once.Do(func() {
		m.mu.Lock()
		if m.sessions[id] == e {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		m.wg.Done()
	})
}

// Get returns the handle for the session registered under id.
func (m *Manager) Get(id string) (Handle, error) {
	m.mu.Lock()
	e := m.sessions[id]
	m.mu.Unlock()
	if e == nil {
		return Handle{}, ErrUnknownSession
	}
	return e.handle, nil
}

// End asks one session to finish. The session's own End handles repeat
// calls, so racing operators are harmless.
func (m *Manager) End(id, reason string) error {
	h, err := m.Get(id)
	if err != nil {
		return err
	}
	if h.End != nil {
		h.End(reason)
	}
	return nil
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SetDraining flips the registry into drain mode: new registrations are
// refused while existing sessions keep running.
func (m *Manager) SetDraining() {
	m.mu.Lock()
	m.draining = true
	m.mu.Unlock()
}

// Draining reports whether the registry is refusing new sessions.
func (m *Manager) Draining() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draining
}

// WarnAll sends a warning to every active session, best effort.
func (m *Manager) WarnAll(code, message string) (sent int) {
	var warns []func(code, message string) error
	m.mu.Lock()
	for _, e := range m.sessions {
		if e.handle.Warn != nil {
			warns = append(warns, e.handle.Warn)
		}
	}
	m.mu.Unlock()

	for _, warn := range warns {
		_ = warn(code, message)
		sent++
	}
	return sent
}

// EndAll asks every active session to finish with the given reason.
func (m *Manager) EndAll(reason string) (ended int) {
	var ends []func(reason string)
	m.mu.Lock()
	for _, e := range m.sessions {
		if e.handle.End != nil {
			ends = append(ends, e.handle.End)
		}
	}
	m.mu.Unlock()

	for _, end := range ends {
		end(reason)
		ended++
	}
	return ended
}

// Wait blocks until every session has unregistered or ctx expires, and
// reports whether the registry drained in time.
func (m *Manager) Wait(ctx context.Context) bool {
	if ctx == nil {
		m.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
