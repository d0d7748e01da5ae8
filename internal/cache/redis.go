package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/tablebot/config"
	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    redis.UniversalClient
	tablesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, tablesTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		tablesTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, tablesTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, tablesTTL: tablesTTL}
}

// Ping checks connectivity so callers can run without redis when it is down.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetTables returns nil, nil on a cache miss.
func (c *RedisCache) GetTables(ctx context.Context) ([]domain.Table, error) {
	data, err := c.client.Get(ctx, tablesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var tables []domain.Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *RedisCache) SetTables(ctx context.Context, tables []domain.Table) error {
	payload, err := json.Marshal(tables)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tablesKey(), payload, c.tablesTTL).Err()
}

func (c *RedisCache) InvalidateTables(ctx context.Context) error {
	return c.client.Del(ctx, tablesKey()).Err()
}

// AcquireSlotLock claims a short-lived lock on one table slot.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, slot domain.Slot, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotLockKey(slot), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSlotLock(ctx context.Context, slot domain.Slot) error {
	return c.client.Del(ctx, slotLockKey(slot)).Err()
}

func tablesKey() string {
	return "cache:tables"
}

func slotLockKey(slot domain.Slot) string {
	return fmt.Sprintf("lock:table:%d:%s:%s", slot.TableID, slot.Date, slot.Time)
}
