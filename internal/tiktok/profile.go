package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
)

const profileRequestTimeout = 10 * time.Second

// ProfileStore caches scraped profiles between lookups.
type ProfileStore interface {
	Set(ctx context.Context, profile *domain.Profile) error
	Get(ctx context.Context, uniqueID string) (*domain.Profile, bool, error)
}

// ProfileClient fetches public account metadata from the profile API,
// read-through cached. Concurrent lookups for the same account collapse
// into one upstream request, and a circuit breaker sheds load while the
// upstream is failing.
type ProfileClient struct {
	baseURL string
	http    *http.Client
	cache   ProfileStore
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker
}

func NewProfileClient(baseURL string, cache ProfileStore) *ProfileClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "profile-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 > counts.Requests
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrProfileNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
		},
	})

	return &ProfileClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: profileRequestTimeout},
		cache:   cache,
		breaker: breaker,
	}
}

func (c *ProfileClient) GetProfile(ctx context.Context, uniqueID string) (*domain.Profile, error) {
	if profile, found, err := c.cache.Get(ctx, uniqueID); err == nil && found {
		return profile, nil
	} else if err != nil {
		slog.Warn("Profile cache read failed", "unique_id", uniqueID, "error", err)
	}

	result, err, _ := c.group.Do(uniqueID, func() (any, error) {
		return c.breaker.Execute(func() (any, error) {
			return c.fetch(ctx, uniqueID)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: profile API unavailable", domain.ErrProfileNotFound)
		}
		return nil, err
	}

	profile := result.(*domain.Profile)
	if err := c.cache.Set(ctx, profile); err != nil {
		slog.Warn("Profile cache write failed", "unique_id", uniqueID, "error", err)
	}

	return profile, nil
}

func (c *ProfileClient) fetch(ctx context.Context, uniqueID string) (*domain.Profile, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile API URL: %w", err)
	}
	u = u.JoinPath("user", url.PathEscape(uniqueID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("profile API returned status %d", resp.StatusCode)
	}

	var profile domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	profile.UniqueID = uniqueID

	return &profile, nil
}
