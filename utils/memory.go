package utils

import (
	"context"
	"sync"
	"time"

	"gamecatalog/models"
)

// MemorySessionStore keeps sessions in process. It is used when no Redis URL
// is configured, so sessions do not survive a restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionToken] = session
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemorySessionStore) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}
