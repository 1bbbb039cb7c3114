package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"telegram-quiz-bot/internal/domain"
)

const sessionsKey = "quiz:sessions"

// SessionStore keeps the authoritative session mapping in memory and mirrors
// it to a single Redis key as one JSON record. Reads never touch Redis after
// startup; a failed write only risks losing state across a restart.
type SessionStore struct {
	client   *redis.Client
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client:   client,
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

// Persist rewrites the whole mapping under one key.
func (s *SessionStore) Persist() error {
	s.mu.RLock()
	data, err := json.Marshal(s.sessions)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling sessions: %w", err)
	}
	if err := s.client.Set(context.Background(), sessionsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("writing sessions to redis: %w", err)
	}
	return nil
}

// Restore reads the mapping back at startup. A missing or corrupt record
// yields an empty mapping; corruption is logged, never fatal.
func (s *SessionStore) Restore() error {
	data, err := s.client.Get(context.Background(), sessionsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("reading sessions from redis: %w", err)
	}

	sessions := make(map[string]domain.Session)
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("corrupt session record in redis, starting empty: %v", err)
		return nil
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
	return nil
}
