package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xaenox/mawari-agent/internal/models"
)

const SessionTTL = 24 * time.Hour

// RedisStorage keeps each session as a JSON list that expires after SessionTTL of inactivity
type RedisStorage struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStorage(client goredis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "mawari"
	}
	return &RedisStorage{
		client: client,
		prefix: prefix,
		ttl:    SessionTTL,
		now:    time.Now,
	}
}

// NewRedisStorageFromURL parses a redis:// URL and pings the server
func NewRedisStorageFromURL(ctx context.Context, url, prefix string) (*RedisStorage, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return NewRedisStorage(client, prefix), nil
}

func (s *RedisStorage) key(sessionID string) string {
	return fmt.Sprintf("%s:chat:%s", s.prefix, sessionID)
}

func (s *RedisStorage) AppendTurns(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = s.now()
		}
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("error encoding turn: %w", err)
		}
		values = append(values, data)
	}

	key := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, -MaxTurnsPerSession, -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error appending turns: %w", err)
	}
	return nil
}

func (s *RedisStorage) RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := s.client.LRange(ctx, s.key(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading turns: %w", err)
	}

	turns := make([]models.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn models.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("error decoding turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisStorage) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
