package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"obstarget/internal/model"
)

// TargetRedisKey prefixes every target key
const TargetRedisKey = "target"

const scanBatchSize = 100

// TargetCache keeps the JSON snapshot of each target under target:<id>
type TargetCache struct {
	client redis.UniversalClient
}

func NewTargetCache(client redis.UniversalClient) *TargetCache {
	return &TargetCache{client: client}
}

// TargetKey returns the Redis key of a target
func TargetKey(id int) string {
	return fmt.Sprintf("%s:%d", TargetRedisKey, id)
}

// LoadAll loads every target snapshot. Entries that fail to decode are skipped.
func (c *TargetCache) LoadAll(ctx context.Context) (map[int]*model.Target, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return nil, err
	}

	targets := make(map[int]*model.Target, len(keys))
	if len(keys) == 0 {
		return targets, nil
	}

	// Retrieve all targets in a single operation
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget targets: %w", err)
	}

	for i, value := range values {
		data, ok := value.(string)
		if !ok || data == "" {
			continue
		}

		t := &model.Target{}
		if err := t.FromJSON([]byte(data)); err != nil {
			log.Printf("Skipping Redis key %s: %v", keys[i], err)
			continue
		}
		targets[t.TargetID] = t
	}

	return targets, nil
}

// SaveAll writes the snapshots of targets in one pipeline. A target that
// cannot be encoded is logged and skipped so it does not block the others.
func (c *TargetCache) SaveAll(ctx context.Context, targets []*model.Target) error {
	queued := 0
	pipe := c.client.Pipeline()
	for _, t := range targets {
		data, err := t.ToJSON()
		if err != nil {
			log.Printf("Skipping Redis snapshot of target %d: %v", t.TargetID, err)
			continue
		}
		pipe.Set(ctx, TargetKey(t.TargetID), data, 0)
		queued++
	}
	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save targets to Redis: %w", err)
	}
	return nil
}

// Delete removes the snapshots of ids
func (c *TargetCache) Delete(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = TargetKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeleteAll removes every target snapshot
func (c *TargetCache) DeleteAll(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}

	log.Printf("Deleted %d targets from Redis", len(keys))
	return len(keys), nil
}

// keys collects all target keys with SCAN
func (c *TargetCache) keys(ctx context.Context) ([]string, error) {
	var cursor uint64
	var keys []string
	pattern := TargetRedisKey + ":*"

	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("scan target keys: %w", err)
		}
		for _, k := range batch {
			if isTargetKey(k) {
				keys = append(keys, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// isTargetKey rejects keys under the prefix that are not target:<int>
func isTargetKey(key string) bool {
	id, ok := strings.CutPrefix(key, TargetRedisKey+":")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(id)
	return err == nil
}
