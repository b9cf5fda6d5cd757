package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// AvatarCache stores viewer avatar URLs under "avatar:<viewer_id>" with
// a bounded TTL.
type AvatarCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewAvatarCache(rdb *goredis.Client, ttl time.Duration) *AvatarCache {
	return &AvatarCache{rdb: rdb, ttl: ttl}
}

func (c *AvatarCache) SetAvatar(ctx context.Context, viewerID, url string) error {
	return c.rdb.Set(ctx, avatarKey(viewerID), url, c.ttl).Err()
}

func (c *AvatarCache) GetAvatar(ctx context.Context, viewerID string) (string, bool, error) {
	url, err := c.rdb.Get(ctx, avatarKey(viewerID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}

func avatarKey(viewerID string) string {
	return "avatar:" + viewerID
}
