package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/plantdoctor/identity/internal/domain"
)

// FileStore keeps the session in a JSON file so it survives restarts of the
// command-line client.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is empty")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get(_ context.Context) (domain.Session, bool, error) {
	const op = "session.FileStore.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, fmt.Errorf("%s: read session file failed: %w", op, err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("%s: decode session failed: %w", op, err)
	}
	if session.Mobile == "" {
		return domain.Session{}, false, nil
	}

	return session, true, nil
}

// Set writes to a temp file and renames it over the old one, readers never
// see a partial session.
func (s *FileStore) Set(_ context.Context, session domain.Session) error {
	const op = "session.FileStore.Set"

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%s: encode session failed: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("%s: create temp file failed: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: write temp file failed: %w", op, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: chmod temp file failed: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: close temp file failed: %w", op, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%s: replace session file failed: %w", op, err)
	}

	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session.FileStore.Clear: remove session file failed: %w", err)
	}
	return nil
}
