package session

import (
	"context"
	"sync"

	"github.com/plantdoctor/identity/internal/domain"
)

type memoryStore struct {
	mu      sync.RWMutex
	session *domain.Session
}

func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Get(_ context.Context) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Session{}, false, nil
	}
	return *s.session, true, nil
}

func (s *memoryStore) Set(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
