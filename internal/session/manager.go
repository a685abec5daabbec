package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/nutrisync/internal/errs"
)

// Storage persists a session between runs.
type Storage interface {
	Save(Session) error
	Load() (Session, error)
	Delete() error
}

// Listener is called after the session changes; ok is false after sign-out.
type Listener func(s Session, ok bool)

// Manager owns the current session and announces changes.
type Manager struct {
	mu        sync.RWMutex
	cur       *Session
	storage   Storage
	key       []byte
	listeners []Listener
	log       *zap.Logger
	now       func() time.Time
}

var _ Provider = (*Manager)(nil)

// NewManager constructs a Manager. key, when set, verifies token signatures.
func NewManager(st Storage, key []byte, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{storage: st, key: key, log: log, now: time.Now}
}

// Restore loads a stored session. Expired sessions are discarded.
func (m *Manager) Restore() error {
	s, err := m.storage.Load()
	if errors.Is(err, errs.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.Expired(m.now()) {
		m.log.Info("stored session expired", zap.String("user_id", s.UserID.String()))
		return m.storage.Delete()
	}
	m.set(&s)
	return nil
}

// SignIn adopts an access token as the current session.
func (m *Manager) SignIn(token string) (Session, error) {
	s, err := ParseToken(token, m.key)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		return Session{}, ErrExpired
	}
	if err := m.storage.Save(s); err != nil {
		return Session{}, err
	}
	m.set(&s)
	m.log.Info("signed in", zap.String("user_id", s.UserID.String()))
	return s, nil
}

// SignOut forgets the session.
func (m *Manager) SignOut() error {
	err := m.storage.Delete()
	m.set(nil)
	return err
}

// Current returns the session when one is set and not expired.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil || m.cur.Expired(m.now()) {
		return Session{}, false
	}
	return *m.cur, true
}

// Subscribe registers l for future changes.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.cur = s
	ls := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	var v Session
	if s != nil {
		v = *s
	}
	for _, l := range ls {
		l(v, s != nil)
	}
}
