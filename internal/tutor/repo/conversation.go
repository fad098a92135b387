package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationRepository) conversationKey(sessionID string) string {
	return fmt.Sprintf("tutor:session:%s:messages", sessionID)
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.conversationKey(sessionID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	return touch(ctx, r.rdb, key, r.ttl)
}

func (r *RedisConversationRepository) LoadHistory(ctx context.Context, sessionID string) (*model.ConversationHistory, error) {
	key := r.conversationKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.ConversationHistory{SessionID: sessionID, Messages: []*schema.Message{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &model.ConversationHistory{SessionID: sessionID, Messages: msgs}, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, sessionID string) error {
	key := r.conversationKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, sessionID string) (int, error) {
	key := r.conversationKey(sessionID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

// touch extends the TTL of key.
func touch(ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ok, err := rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
		return errx.WrapRedis(err)
	}
	if !ok {
		logx.Warn().Str("key", key).Dur("ttl", ttl).Msg("failed to set TTL on key")
	}
	return nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
