package storage

import (
	"context"

	"github.com/xaenox/mawari-agent/internal/models"
)

// Storage keeps chat session history keyed by session id
type Storage interface {
	AppendTurns(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error
	// RecentTurns returns at most limit turns, oldest first. limit <= 0 means all.
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Close() error
}

// MaxTurnsPerSession bounds what any backend keeps for one session
const MaxTurnsPerSession = 100
