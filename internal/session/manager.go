package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/templui/hydrate/internal/localstate"
)

// Factory builds the Config for a user's session.
type Factory func(ctx context.Context, userID string) (Config, error)

// KnownUser is an entry of the registered-users list kept in local state so a
// client can offer recent accounts without reaching the server.
type KnownUser struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// Manager keeps one live Session per signed-in user.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opening  map[string]*sync.Mutex
	build    Factory
	state    localstate.Store
	logger   *slog.Logger
}

// NewManager uses state for process-wide documents (the last session and the
// known-users list); a nil state keeps them in memory.
func NewManager(build Factory, state localstate.Store, logger *slog.Logger) *Manager {
	if state == nil {
		state = localstate.NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opening:  make(map[string]*sync.Mutex),
		build:    build,
		state:    state,
		logger:   logger,
	}
}

// Open returns the user's session, creating and syncing it on first use.
func (m *Manager) Open(ctx context.Context, userID string) (*Session, error) {
	if s, ok := m.Get(userID); ok {
		return s, nil
	}

	// one builder per user; concurrent requests wait for it
	m.mu.Lock()
	lock, ok := m.opening[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.opening[userID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	defer m.doneOpening(userID, lock)

	if s, ok := m.Get(userID); ok {
		return s, nil
	}

	cfg, err := m.build(ctx, userID)
	if err != nil {
		return nil, err
	}
	cfg.UserID = userID
	if cfg.Logger == nil {
		cfg.Logger = m.logger
	}

	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	_, err = s.Sync(ctx)
	if err != nil {
		// the session still works from local state
		s.logger.Warn("initial sync failed", "error", err)
	}

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		s.Close()
		return existing, nil
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	m.remember(userID)
	m.logger.Info("session opened", "user_id", userID)
	return s, nil
}

// doneOpening drops the builder lock for userID unless a newer open replaced it.
func (m *Manager) doneOpening(userID string, lock *sync.Mutex) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opening[userID] == lock {
		delete(m.opening, userID)
	}
}

func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Close ends the user's session, e.g. on logout.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.Close()

	var last sessionDoc
	if localstate.LoadOr(m.state, m.logger, localstate.KeySession, &last) && last.UserID == userID {
		err := m.state.Delete(localstate.KeySession)
		if err != nil {
			m.logger.Warn("failed to clear session", "error", err)
		}
	}
	m.logger.Info("session closed", "user_id", userID)
}

// CloseAll ends every session; the server calls it on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// KnownUsers lists users who opened a session, most recent first.
func (m *Manager) KnownUsers() []KnownUser {
	var users []KnownUser
	localstate.LoadOr(m.state, m.logger, localstate.KeyUsers, &users)
	return users
}

func (m *Manager) remember(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	localstate.SaveOrLog(m.state, m.logger, localstate.KeySession, sessionDoc{UserID: userID, OpenedAt: now})

	users := m.KnownUsers()
	users = slices.DeleteFunc(users, func(u KnownUser) bool { return u.UserID == userID })
	users = slices.Insert(users, 0, KnownUser{UserID: userID, LastSeen: now})
	localstate.SaveOrLog(m.state, m.logger, localstate.KeyUsers, users)
}
