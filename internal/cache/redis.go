package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"go_configserver/internal/model"
)

var Client *redis.Client

// InitRedis initializes Redis connection
func InitRedis(addr, password string, db int) error {
	Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx := context.Background()
	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✓ Redis connected successfully")
	return nil
}

// Close closes the Redis connection
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}

// SyncCache is a short-TTL read-through cache for the sync poll endpoint.
// Every committed mutation invalidates the pair's entry, so a hit is at most
// TTL seconds stale and only for reads racing a write. Cache failures are
// swallowed: the database remains the source of truth.
type SyncCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSyncCache creates a sync-info cache with the given entry TTL.
func NewSyncCache(client *redis.Client, ttl time.Duration) *SyncCache {
	return &SyncCache{client: client, ttl: ttl}
}

func syncKey(app, domain string) string {
	return fmt.Sprintf("configsync:%s:%s", domain, app)
}

// Get returns the cached sync row for the pair, if present.
func (c *SyncCache) Get(ctx context.Context, app, domain string) (*model.ConfigSync, bool) {
	payload, err := c.client.Get(ctx, syncKey(app, domain)).Bytes()
	if err != nil {
		return nil, false
	}
	var sync model.ConfigSync
	if err := json.Unmarshal(payload, &sync); err != nil {
		return nil, false
	}
	return &sync, true
}

// Set stores the sync row under the pair's key.
func (c *SyncCache) Set(ctx context.Context, sync *model.ConfigSync) {
	payload, err := json.Marshal(sync)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, syncKey(sync.ApplicationName, sync.Domain), payload, c.ttl).Err(); err != nil {
		log.Printf("[WARN] failed to cache sync info: %v", err)
	}
}

// Invalidate drops the pair's cached entry.
func (c *SyncCache) Invalidate(ctx context.Context, app, domain string) {
	if err := c.client.Del(ctx, syncKey(app, domain)).Err(); err != nil {
		log.Printf("[WARN] failed to invalidate sync cache: %v", err)
	}
}
