// Package redis provides the Redis item repository for deployments that run
// several API instances against one inventory.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces the repository keys
const DefaultKeyPrefix = "rasoiops:"

// ItemRepository stores item ids newest first in a list and the encoded
// items in a hash keyed by id. Both are always written inside MULTI/EXEC.
type ItemRepository struct {
	client  redis.UniversalClient
	listKey string
	hashKey string
	logger  *zap.Logger
}

var _ outbound.ItemRepository = (*ItemRepository)(nil)

// NewClient creates a Redis client from configuration and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:           []string{cfg.Addr()},
		Password:        cfg.Password,
		DB:              cfg.Database,
		PoolSize:        cfg.PoolSize,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.Database))
	return client, nil
}

// NewItemRepository creates a repository using keys under prefix
func NewItemRepository(client redis.UniversalClient, prefix string, logger *zap.Logger) *ItemRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ItemRepository{
		client:  client,
		listKey: prefix + "inventory:order",
		hashKey: prefix + "inventory:items",
		logger:  logger.Named("redis-items"),
	}
}

// Prepend pushes the batch onto the head of the list keeping batch order
func (r *ItemRepository) Prepend(ctx context.Context, items ...inventory.Item) error {
	if len(items) == 0 {
		return nil
	}

	// LPUSH inserts its arguments one by one at the head, so push in reverse
	ids := make([]interface{}, 0, len(items))
	fields := make([]interface{}, 0, 2*len(items))
	for i := len(items) - 1; i >= 0; i-- {
		ids = append(ids, items[i].ID.String())
	}
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
		}
		fields = append(fields, item.ID.String(), encoded)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.hashKey, fields...)
		pipe.LPush(ctx, r.listKey, ids...)
		return nil
	})
	return err
}

// List returns every item newest first. Ids whose record is missing are skipped.
func (r *ItemRepository) List(ctx context.Context) ([]inventory.Item, error) {
	ids, err := r.client.LRange(ctx, r.listKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []inventory.Item{}, nil
	}

	values, err := r.client.HMGet(ctx, r.hashKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	items := make([]inventory.Item, 0, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			r.logger.Warn("Dangling item id in order list", zap.String("item_id", ids[i]))
			continue
		}
		var item inventory.Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("corrupt item %s: %w", ids[i], err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes id from both keys and reports whether it was present
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.LRem(ctx, r.listKey, 0, id.String())
		pipe.HDel(ctx, r.hashKey, id.String())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return removed.Val() > 0, nil
}

// Count returns the length of the order list
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.listKey).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Ping checks connectivity for readiness probes
func (r *ItemRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
