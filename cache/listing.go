package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"AriaVault/logger"

	"github.com/redis/go-redis/v9"
)

// listingTTL keeps cached playlist listings short-lived; an upload into the
// scope invalidates eagerly, the TTL covers writes from outside this
// process. Signed URLs are never cached here or anywhere else.
const listingTTL = 45 * time.Second

// listingKey 根据作用域前缀生成Redis键
func listingKey(scope string) string {
	return "catalog:playlists:" + scope
}

// ListingCache caches playlist-name listings per scope prefix. All methods
// are nil-safe and degrade to a miss or a no-op, so a Redis outage never
// fails a request.
type ListingCache struct {
	client *redis.Client
}

// NewListingCache 创建播放列表缓存；client 可以为 nil
func NewListingCache(client *redis.Client) *ListingCache {
	return &ListingCache{client: client}
}

// Get returns the cached playlist names for a scope, if present.
func (c *ListingCache) Get(ctx context.Context, scope string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, listingKey(scope)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug("Playlist listing cache read failed",
			logger.String("scope", scope),
			logger.ErrorField(err),
		)
		return nil, false
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		logger.Warn("Dropping corrupt playlist listing cache entry",
			logger.String("scope", scope),
			logger.ErrorField(err),
		)
		c.client.Del(ctx, listingKey(scope))
		return nil, false
	}
	return names, true
}

// Put stores playlist names for a scope with the listing TTL.
func (c *ListingCache) Put(ctx context.Context, scope string, names []string) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(names)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listingKey(scope), raw, listingTTL).Err(); err != nil {
		logger.Debug("Playlist listing cache write failed",
			logger.String("scope", scope),
			logger.ErrorField(err),
		)
	}
}

// Ping reports whether the cache backend is reachable. A cache that was
// never configured counts as unreachable.
func (c *ListingCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("listing cache not configured")
	}
	return c.client.Ping(ctx).Err()
}

// Invalidate drops the cached listing for a scope, e.g. after an upload.
func (c *ListingCache) Invalidate(ctx context.Context, scope string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, listingKey(scope)).Err(); err != nil {
		logger.Debug("Playlist listing cache invalidation failed",
			logger.String("scope", scope),
			logger.ErrorField(err),
		)
	}
}
