package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neon-portfolio/server/internal/assistant/model"
	errx "github.com/neon-portfolio/server/internal/core/error"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

// RedisMessageStore keeps each session's sequence in a Redis list whose TTL
// is extended on every write.
type RedisMessageStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisMessageStore(rdb redis.Cmdable, ttl time.Duration) *RedisMessageStore {
	return &RedisMessageStore{rdb: rdb, ttl: ttl}
}

func (r *RedisMessageStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("chat:%s:messages", sessionID)
}

func (r *RedisMessageStore) Append(ctx context.Context, sessionID string, msg model.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.sessionKey(sessionID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	return r.touch(ctx, key)
}

func (r *RedisMessageStore) Replace(ctx context.Context, sessionID string, index int, msg model.Message) error {
	if index < 0 {
		return model.ErrNoSuchMessage
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.sessionKey(sessionID)

	if err := r.rdb.LSet(ctx, key, int64(index), b).Err(); err != nil {
		// LSET answers "ERR no such key" or "ERR index out of range".
		if n, lerr := r.rdb.LLen(ctx, key).Result(); lerr == nil && int64(index) >= n {
			return model.ErrNoSuchMessage
		}
		logx.Error().Err(err).Str("key", key).Int("index", index).Msg("failed to replace message in redis")
		return errx.WrapRedis(err)
	}
	return r.touch(ctx, key)
}

func (r *RedisMessageStore) List(ctx context.Context, sessionID string) ([]model.Message, error) {
	key := r.sessionKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Message{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load messages from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]model.Message, 0, len(rows))
	for i, s := range rows {
		var m model.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (r *RedisMessageStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		return false, errx.WrapRedis(err)
	}
	return n > 0, nil
}

func (r *RedisMessageStore) Delete(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete messages from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// touch extends the TTL of key.
func (r *RedisMessageStore) touch(ctx context.Context, key string) error {
	if r.ttl <= 0 {
		return nil
	}
	ok, err := r.rdb.Expire(ctx, key, r.ttl).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
		return errx.WrapRedis(err)
	}
	if !ok {
		logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
	}
	return nil
}

var _ model.MessageStore = (*RedisMessageStore)(nil)
