package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

// RedisPatternHistoryRepository persists the per-session pattern log as a
// capped Redis list.
type RedisPatternHistoryRepository struct {
	rdb        redis.Cmdable
	ttl        time.Duration
	maxEntries int64
}

func NewRedisPatternHistoryRepository(rdb redis.Cmdable, ttl time.Duration, maxEntries int) *RedisPatternHistoryRepository {
	return &RedisPatternHistoryRepository{rdb: rdb, ttl: ttl, maxEntries: int64(maxEntries)}
}

func (r *RedisPatternHistoryRepository) patternsKey(sessionID string) string {
	return fmt.Sprintf("tutor:session:%s:patterns", sessionID)
}

func (r *RedisPatternHistoryRepository) AppendPattern(ctx context.Context, sessionID string, pattern model.OrchestrationPattern) error {
	b, err := json.Marshal(pattern)
	if err != nil {
		return fmt.Errorf("marshal pattern: %w", err)
	}
	key := r.patternsKey(sessionID)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		if r.maxEntries > 0 {
			pipe.LTrim(ctx, key, -r.maxEntries, -1)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append pattern to redis")
		return errx.WrapRedis(err)
	}
	return touch(ctx, r.rdb, key, r.ttl)
}

func (r *RedisPatternHistoryRepository) LoadPatterns(ctx context.Context, sessionID string) ([]model.OrchestrationPattern, error) {
	key := r.patternsKey(sessionID)
	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load patterns from redis")
		return nil, errx.WrapRedis(err)
	}

	out := make([]model.OrchestrationPattern, 0, len(rows))
	for i, s := range rows {
		var p model.OrchestrationPattern
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			// A corrupt entry only loses one transition.
			logx.Warn().Err(err).Str("session_id", sessionID).Int("index", i).Msg("skipping unreadable pattern")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *RedisPatternHistoryRepository) ClearPatterns(ctx context.Context, sessionID string) error {
	key := r.patternsKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete patterns from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.PatternHistoryRepository = (*RedisPatternHistoryRepository)(nil)
