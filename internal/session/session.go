// Package session owns the persisted login state shared by every region of a
// console application, and the broadcast mechanism that keeps those regions
// consistent: a write through the Manager notifies local subscribers on the
// same tick, and a Watch goroutine relays changes made by other processes.
package session

import (
	"context"
	"log/slog"
	"sync"
)

// Session is the authenticated identity persisted on the client. The presence
// of a non-empty token is the sole authentication signal.
type Session struct {
	Token    string `json:"access_token"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store persists a session between runs. Load returns the zero Session when
// nothing usable is persisted; it never fails on missing or malformed state.
type Store interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Watcher is implemented by stores that can observe writes made by other
// processes. onChange fires only for external writes, never for this
// process's own, mirroring the browser storage-event contract.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Manager is the single owner of session state for one application shell.
// Views read through it and subscribe to it; only the shell writes.
type Manager struct {
	store Store
	log   *slog.Logger

	mu   sync.Mutex
	subs map[int]func()
	next int
}

// NewManager wraps a store with the broadcast hub.
func NewManager(store Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log, subs: make(map[int]func())}
}

// Current returns the persisted session, zero-valued when absent or
// unreadable.
func (m *Manager) Current() Session {
	s, err := m.store.Load()
	if err != nil {
		m.log.Warn("session load failed, treating as logged out", "error", err)
		return Session{}
	}
	return s
}

// IsAuthenticated reports whether a non-empty token is persisted. Pure read,
// no side effects.
func (m *Manager) IsAuthenticated() bool {
	return m.Current().Authenticated()
}

// Establish persists the session produced by a login or signup response and
// broadcasts the change.
func (m *Manager) Establish(s Session) error {
	if err := m.store.Save(s); err != nil {
		return err
	}
	m.NotifyAuthChanged()
	return nil
}

// Logout clears the persisted session and broadcasts the change.
func (m *Manager) Logout() error {
	if err := m.store.Clear(); err != nil {
		return err
	}
	m.NotifyAuthChanged()
	return nil
}

// Subscribe registers fn to run on every auth-state broadcast and returns the
// deregistration func. Callers must invoke it when the subscribing region
// unmounts so handlers do not leak.
func (m *Manager) Subscribe(fn func()) func() {
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// NotifyAuthChanged runs every subscriber synchronously on the calling
// goroutine, so all regions re-evaluate IsAuthenticated on the same tick.
func (m *Manager) NotifyAuthChanged() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ExpireIfStale logs out when the persisted token carries an exp claim in the
// past, reporting whether it did. Malformed tokens count as expired; a token
// without exp never does.
func (m *Manager) ExpireIfStale() bool {
	s := m.Current()
	if !s.Authenticated() || !tokenExpired(s.Token) {
		return false
	}
	if err := m.Logout(); err != nil {
		m.log.Warn("expired session cleanup failed", "error", err)
	}
	return true
}

// Watch relays external writes into the local broadcast until ctx is done.
// It is a no-op for stores that cannot observe other processes.
func (m *Manager) Watch(ctx context.Context) error {
	w, ok := m.store.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, m.NotifyAuthChanged)
}
