package storage

import (
	"context"
	"sync"
	"time"

	"github.com/xaenox/mawari-agent/internal/models"
)

type memorySession struct {
	turns    []models.ConversationTurn
	lastSeen time.Time
}

// MemoryStorage drops a session once it has been idle for SessionTTL, matching the Redis backend
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]*memorySession),
		ttl:      SessionTTL,
		now:      time.Now,
	}
}

func (s *MemoryStorage) AppendTurns(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdle(now)

	session, ok := s.sessions[sessionID]
	if !ok {
		session = &memorySession{}
		s.sessions[sessionID] = session
	}
	history := append(session.turns, turns...)
	if len(history) > MaxTurnsPerSession {
		history = append([]models.ConversationTurn(nil), history[len(history)-MaxTurnsPerSession:]...)
	}
	session.turns = history
	session.lastSeen = now
	return nil
}

func (s *MemoryStorage) RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok || s.expired(session, s.now()) {
		return []models.ConversationTurn{}, nil
	}
	history := session.turns
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]models.ConversationTurn, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStorage) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Len reports the sessions currently held, idle ones included until the next append
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func (s *MemoryStorage) expired(session *memorySession, now time.Time) bool {
	return now.Sub(session.lastSeen) >= s.ttl
}

// evictIdle must be called with mu held for writing
func (s *MemoryStorage) evictIdle(now time.Time) {
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
		}
	}
}
