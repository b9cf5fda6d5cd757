package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// AuthStore maps bearer tokens to streamer unique IDs under
// "auth:<token>". Issue backs the authgen command; the server only
// resolves tokens.
type AuthStore struct {
	rdb *goredis.Client
}

func NewAuthStore(rdb *goredis.Client) *AuthStore {
	return &AuthStore{rdb: rdb}
}

func (s *AuthStore) Issue(ctx context.Context, streamerID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, authKey(token), streamerID, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthStore) Lookup(ctx context.Context, token string) (string, bool, error) {
	streamerID, err := s.rdb.Get(ctx, authKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return streamerID, true, nil
}

func authKey(token string) string {
	return "auth:" + token
}
