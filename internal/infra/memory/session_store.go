package memory

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"telegram-quiz-bot/internal/domain"
)

// SessionStore keeps the canonical session mapping in memory and snapshots it
// to a single JSON file. The file is rewritten in full after every mutating
// event and re-read in full at startup.
type SessionStore struct {
	mu       sync.RWMutex
	path     string
	sessions map[string]domain.Session
}

// NewSessionStore builds a store snapshotting to path. An empty path disables
// durability entirely, which is what the unit tests use.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{
		path:     path,
		sessions: make(map[string]domain.Session),
	}
}

func (s *SessionStore) Get(userID string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *SessionStore) Put(userID string, sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

// Remove is idempotent; deleting an absent session is not an error.
func (s *SessionStore) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// All returns an unordered snapshot of every session; callers sort.
func (s *SessionStore) All() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Persist writes the whole mapping using a temp-file-then-rename so a crash
// mid-write never leaves a truncated snapshot behind.
func (s *SessionStore) Persist() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling sessions: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	committed = true
	return nil
}

// Restore loads the snapshot. A missing or corrupt image yields an empty
// mapping: corruption is logged, never surfaced, so the bot still starts.
func (s *SessionStore) Restore() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading snapshot: %w", err)
	}

	sessions := make(map[string]domain.Session)
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("corrupt session snapshot at %s, starting empty: %v", s.path, err)
		return nil
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
	return nil
}
