// Package cache holds the Redis-backed read caches derived from the
// notifications table. Everything here is keyed under a tag so the
// engine can invalidate all derived reads after a successful mutation.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

const keyPrefix = "cache:"

// NotificationCache implements domain.NotificationCache over Redis.
type NotificationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewNotificationCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *NotificationCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &NotificationCache{client: client, ttl: ttl, logger: logger}
}

// Invalidate drops every key under the tag so other readers (the
// unread-count badge, list views) never serve stale results after a
// mutation.
func (c *NotificationCache) Invalidate(ctx context.Context, tag string) error {
	pattern := keyPrefix + tag + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("invalidate %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	return nil
}

func (c *NotificationCache) key(tag, name string) string {
	return keyPrefix + tag + ":" + name
}

// UnreadCountSource is the authoritative counter the badge falls back
// to on a cache miss.
type UnreadCountSource interface {
	UnreadCount(ctx context.Context) (int, error)
}

// UnreadCounter serves the dashboard's unread badge: Redis first,
// repository on miss. A cache failure degrades to the repository rather
// than failing the read.
type UnreadCounter struct {
	cache  *NotificationCache
	source UnreadCountSource
}

func NewUnreadCounter(cache *NotificationCache, source UnreadCountSource) *UnreadCounter {
	return &UnreadCounter{cache: cache, source: source}
}

func (u *UnreadCounter) UnreadCount(ctx context.Context) (int, error) {
	key := u.cache.key(domain.CacheTagNotifications, "unread_count")

	if val, err := u.cache.client.Get(ctx, key).Result(); err == nil {
		if count, convErr := strconv.Atoi(val); convErr == nil {
			return count, nil
		}
	} else if err != redis.Nil {
		u.cache.logger.Warn("unread-count cache read failed", "error", err)
	}

	count, err := u.source.UnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	if err := u.cache.client.Set(ctx, key, strconv.Itoa(count), u.cache.ttl).Err(); err != nil {
		u.cache.logger.Warn("unread-count cache write failed", "error", err)
	}
	return count, nil
}
