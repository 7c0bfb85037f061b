package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vwallet/internal/models"

	"github.com/redis/go-redis/v9"
)

const clientCachePrefix = "client:"

// ClientCache is a Redis read cache for client records keyed by the
// (document, phone) identity pair. It is strictly an optimization: misses
// and errors fall through to the database, and every balance mutation
// invalidates the entry.
type ClientCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClientCache creates a client record cache with the given TTL.
func NewClientCache(client *redis.Client, ttl time.Duration) *ClientCache {
	return &ClientCache{client: client, ttl: ttl}
}

func clientCacheKey(document, phone string) string {
	return fmt.Sprintf("%s%s:%s", clientCachePrefix, document, phone)
}

// GetClient returns the cached client or an error on miss.
func (c *ClientCache) GetClient(ctx context.Context, document, phone string) (*models.Client, error) {
	data, err := c.client.Get(ctx, clientCacheKey(document, phone)).Bytes()
	if err != nil {
		return nil, err
	}
	var client models.Client
	if err := json.Unmarshal(data, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// SetClient stores the client record under its identity pair.
func (c *ClientCache) SetClient(ctx context.Context, client *models.Client) error {
	data, err := json.Marshal(client)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, clientCacheKey(client.Document, client.Phone), data, c.ttl).Err()
}

// InvalidateClient drops the cached record after a balance mutation.
func (c *ClientCache) InvalidateClient(ctx context.Context, document, phone string) error {
	return c.client.Del(ctx, clientCacheKey(document, phone)).Err()
}
