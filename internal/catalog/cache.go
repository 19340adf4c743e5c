package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps each owner's category list in Redis. Import runs resolve item
// categories against this list, so every category write drops it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache over client. A nil client or non-positive ttl disables it.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func categoriesKey(ownerID string) string {
	return "catalog:categories:" + ownerID
}

// Categories returns the cached list. ok is false on a miss or when disabled.
func (c *Cache) Categories(ctx context.Context, ownerID string) (out []Category, ok bool, err error) {
	if !c.enabled() {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, categoriesKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		// a payload from an older shape is treated as a miss and overwritten
		return nil, false, nil
	}
	return out, true, nil
}

// StoreCategories caches list for the configured TTL.
func (c *Cache) StoreCategories(ctx context.Context, ownerID string, list []Category) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoriesKey(ownerID), data, c.ttl).Err()
}

// Forget drops the owner's cached list.
func (c *Cache) Forget(ctx context.Context, ownerID string) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, categoriesKey(ownerID)).Err()
}
