package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	sessionFileName     = "session.json"
	defaultPollInterval = 500 * time.Millisecond
)

// FileStore persists the session as a JSON file under the application state
// directory. Watch polls the file so a logout performed by another console
// process on the same machine is observed without a restart.
type FileStore struct {
	path     string
	interval time.Duration

	mu       sync.Mutex
	lastSeen string
}

// NewFileStore creates the state directory when needed and returns a store
// over <dir>/session.json.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &FileStore{path: filepath.Join(dir, sessionFileName), interval: defaultPollInterval}
	s.lastSeen = s.snapshot()
	return s, nil
}

// Load reads the persisted session. A missing or malformed file loads as the
// zero session: unreadable state means logged out, never an error.
func (s *FileStore) Load() (Session, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, nil
	}
	return sess, nil
}

// Save persists the session with owner-only permissions.
func (s *FileStore) Save(sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	s.lastSeen = string(b)
	return nil
}

// Clear removes the persisted session. Already-absent state is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	s.lastSeen = ""
	return nil
}

// Watch polls the session file until ctx is done and invokes onChange when
// its content diverges from the last write this process made. Own writes do
// not fire, matching the storage-event contract.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.mu.Lock()
			current := s.snapshot()
			changed := current != s.lastSeen
			if changed {
				s.lastSeen = current
			}
			s.mu.Unlock()
			if changed {
				onChange()
			}
		}
	}
}

// snapshot fingerprints the on-disk state; a missing file reads as empty.
func (s *FileStore) snapshot() string {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return string(b)
}
