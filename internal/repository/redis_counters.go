package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tempizhere/goredirect/internal/models"
	"go.uber.org/zap"
)

// RedisCounterStore реализует CounterRepository поверх Redis.
// Счётчики хранятся в хэшах, HINCRBY атомарно увеличивает значение
// и создаёт ключ при первом инкременте.
type RedisCounterStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCounterStore создаёт хранилище счётчиков и проверяет соединение
func NewRedisCounterStore(addr string, logger *zap.Logger) (*RedisCounterStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisCounterStore{
		client: client,
		logger: logger,
	}, nil
}

// counterKey собирает ключ счётчика вида agg:{kind}:{scope_id}
func counterKey(scopeID string, kind models.AggregateKind) string {
	return "agg:" + string(kind) + ":" + scopeID
}

// Increment атомарно увеличивает счётчик и обновляет отметку времени
func (s *RedisCounterStore) Increment(scopeID string, kind models.AggregateKind) error {
	ctx := context.Background()
	key := counterKey(scopeID, kind)

	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "clicks", 1)
	pipe.HSet(ctx, key, "last_updated", time.Now().UTC().Format(time.RFC3339))
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to increment counter in Redis",
			zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Get возвращает счётчик по ключу
func (s *RedisCounterStore) Get(scopeID string, kind models.AggregateKind) (models.AggregateCounter, bool) {
	ctx := context.Background()
	key := counterKey(scopeID, kind)

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		s.logger.Error("Failed to get counter from Redis", zap.String("key", key), zap.Error(err))
		return models.AggregateCounter{}, false
	}
	if len(fields) == 0 {
		return models.AggregateCounter{}, false
	}

	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		s.logger.Error("Invalid counter value in Redis",
			zap.String("key", key), zap.String("clicks", fields["clicks"]), zap.Error(err))
		return models.AggregateCounter{}, false
	}
	counter := models.AggregateCounter{
		ScopeID: scopeID,
		Kind:    kind,
		Clicks:  clicks,
	}
	if ts, err := time.Parse(time.RFC3339, fields["last_updated"]); err == nil {
		counter.LastUpdated = ts
	}
	return counter, true
}

// Close закрывает соединение с Redis
func (s *RedisCounterStore) Close() error {
	return s.client.Close()
}
