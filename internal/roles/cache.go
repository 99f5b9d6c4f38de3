package roles

import (
	"context"
	"log/slog"
	"time"

	platformredis "github.com/fbn1986/gerenciador-de-contratos/internal/platform/redis"
)

const cacheTTL = 5 * time.Minute

// Cache is a read-through Redis cache for role lookups. Every privileged
// endpoint resolves the caller's role, so the hot path avoids the database.
// Cache failures degrade to store reads, they are never fatal.
type Cache struct {
	client *platformredis.Client
	logger *slog.Logger
}

// NewCache returns nil when the client is nil (Redis not configured); the
// service treats a nil cache as a pass-through.
func NewCache(client *platformredis.Client, logger *slog.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, logger: logger}
}

func cacheKey(uid string) string { return "role:" + uid }

func (c *Cache) Get(ctx context.Context, uid string) (Role, bool) {
	if c == nil {
		return "", false
	}
	value, err := c.client.Get(ctx, cacheKey(uid)).Result()
	if err != nil {
		return "", false
	}
	role, ok := ParseRole(value)
	return role, ok
}

func (c *Cache) Set(ctx context.Context, uid string, role Role) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(uid), string(role), cacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache role", "uid", uid, "error", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, uid string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(uid)).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate cached role", "uid", uid, "error", err)
	}
}
