package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout таймаут проверки соединения при старте
const pingTimeout = 2 * time.Second

// Redis кэш на основе Redis для read-side агрегатов.
// Значения хранятся как JSON-строки с TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis создает клиент Redis и проверяет соединение
func NewRedis(addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}

	return &Redis{
		client: client,
		ttl:    ttl,
	}, nil
}

// Get возвращает значение по ключу; false, если ключа нет или Redis недоступен
func (c *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

// Set сохраняет значение с настроенным TTL.
// Ошибки записи игнорируются: кэш - оптимизация, а не источник истины.
func (c *Redis) Set(ctx context.Context, key, value string) {
	_ = c.client.Set(ctx, key, value, c.ttl).Err()
}

// Close закрывает соединение с Redis
func (c *Redis) Close() error {
	return c.client.Close()
}
