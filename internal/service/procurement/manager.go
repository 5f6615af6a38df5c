package procurement

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// Options configure every session created by a SessionManager.
type Options struct {
	Policy            *Policy
	IDs               *IDGenerator
	Requester         string
	AttemptsPerMinute int
	Observers         []OrderObserver
}

// SessionManager owns the live sessions. Sessions never share carts or ledgers; only
// the ID generator is common to all of them.
type SessionManager struct {
	opts     Options
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionManager creates a manager.
func NewSessionManager(opts Options, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.IDs == nil {
		opts.IDs = NewIDGenerator(nil)
	}
	if opts.AttemptsPerMinute <= 0 {
		opts.AttemptsPerMinute = 5
	}
	return &SessionManager{
		opts:     opts,
		sessions: make(map[string]*Session),
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a new session with an empty cart and ledger.
func (m *SessionManager) Create() *Session {
	perMinute := m.opts.AttemptsPerMinute
	session := &Session{
		id:        uuid.NewString(),
		createdAt: m.now().UTC(),
		cart:      NewCart(),
		ledger:    NewLedger(),
		attempts:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		policy:    m.opts.Policy,
		ids:       m.opts.IDs,
		requester: m.opts.Requester,
		observers: m.opts.Observers,
		logger:    m.logger,
		now:       m.now,
	}

	m.mu.Lock()
	m.sessions[session.id] = session
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session_id", session.id))
	return session
}

// Get retrieves a live session.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrSessionNotFound)
	}
	return session, nil
}

// Close discards a session and everything it holds.
func (m *SessionManager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
