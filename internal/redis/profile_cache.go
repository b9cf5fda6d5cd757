package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
)

// ProfileCache stores scraped account metadata as JSON under
// "user:<unique_id>".
type ProfileCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewProfileCache(rdb *goredis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, ttl: ttl}
}

func (c *ProfileCache) Set(ctx context.Context, profile *domain.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return c.rdb.Set(ctx, profileKey(profile.UniqueID), payload, c.ttl).Err()
}

func (c *ProfileCache) Get(ctx context.Context, uniqueID string) (*domain.Profile, bool, error) {
	payload, err := c.rdb.Get(ctx, profileKey(uniqueID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var profile domain.Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached profile: %w", err)
	}
	return &profile, true, nil
}

func profileKey(uniqueID string) string {
	return "user:" + uniqueID
}
