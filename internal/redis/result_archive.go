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

// ResultArchive persists finalized giveaway results as JSON under
// "gresults:<streamer_id>" with a bounded retention TTL.
type ResultArchive struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewResultArchive(rdb *goredis.Client, ttl time.Duration) *ResultArchive {
	return &ResultArchive{rdb: rdb, ttl: ttl}
}

func (a *ResultArchive) Store(ctx context.Context, streamerID string, giveaway *domain.Giveaway) error {
	payload, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway result: %w", err)
	}
	return a.rdb.Set(ctx, resultKey(streamerID), payload, a.ttl).Err()
}

// Load distinguishes a missing result (ErrGiveawayNotFound) from an
// unreachable store (ErrArchiveUnavailable).
func (a *ResultArchive) Load(ctx context.Context, streamerID string) (*domain.Giveaway, error) {
	payload, err := a.rdb.Get(ctx, resultKey(streamerID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArchiveUnavailable, err)
	}

	var giveaway domain.Giveaway
	if err := json.Unmarshal(payload, &giveaway); err != nil {
		return nil, fmt.Errorf("failed to unmarshal giveaway result: %w", err)
	}
	return &giveaway, nil
}

func resultKey(streamerID string) string {
	return "gresults:" + streamerID
}
