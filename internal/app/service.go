// Package app wires the session pool, giveaway engine, and storage into
// the operations the HTTP layer exposes.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
	"github.com/isaackogan/Live-Tok-Backend/internal/giveaway"
	"github.com/isaackogan/Live-Tok-Backend/internal/live"
)

// Service is the application facade. All handler-facing operations live
// here so the HTTP layer stays a thin translation of requests and
// sentinel errors.
type Service struct {
	pool      *live.Pool
	giveaways *giveaway.Engine
	stats     domain.StatisticsRepository
	avatars   domain.AvatarCache
	archive   domain.ResultArchive
	profiles  domain.ProfileClient
}

func NewService(pool *live.Pool, giveaways *giveaway.Engine, stats domain.StatisticsRepository, avatars domain.AvatarCache, archive domain.ResultArchive, profiles domain.ProfileClient) *Service {
	return &Service{
		pool:      pool,
		giveaways: giveaways,
		stats:     stats,
		avatars:   avatars,
		archive:   archive,
		profiles:  profiles,
	}
}

// StartTracking attaches a live session for the streamer.
func (s *Service) StartTracking(ctx context.Context, streamerID string) error {
	return s.pool.Attach(ctx, streamerID)
}

// StopTracking detaches the streamer's session and abandons any active
// giveaway. Idempotent.
func (s *Service) StopTracking(streamerID string) {
	s.pool.Detach(streamerID)
}

// IsTracking reports whether a live session is attached.
func (s *Service) IsTracking(streamerID string) bool {
	return s.pool.IsTracking(streamerID)
}

// CreateGiveaway starts a giveaway. Requires an attached session: a
// giveaway without event flow could never finish with entrants.
func (s *Service) CreateGiveaway(streamerID, prizeName, joinWord string, winnerCount, durationMinutes int) (*domain.Giveaway, error) {
	if !s.pool.IsTracking(streamerID) {
		return nil, domain.ErrNotTracking
	}
	return s.giveaways.Create(streamerID, prizeName, joinWord, winnerCount, durationMinutes)
}

// UpdateGiveaway replaces the mutable fields of the active giveaway.
func (s *Service) UpdateGiveaway(streamerID, prizeName, joinWord string, winnerCount int) (*domain.Giveaway, error) {
	return s.giveaways.Update(streamerID, prizeName, joinWord, winnerCount)
}

// FinalizeGiveaway ends the active giveaway. With pickWinner the result
// is drawn and archived.
func (s *Service) FinalizeGiveaway(ctx context.Context, streamerID string, pickWinner bool) (*domain.Giveaway, error) {
	return s.giveaways.Finalize(ctx, streamerID, pickWinner)
}

// GetGiveaway returns the active giveaway, falling back to the most
// recently archived result when none is running.
func (s *Service) GetGiveaway(ctx context.Context, streamerID string) (*domain.Giveaway, error) {
	if g, ok := s.giveaways.Get(streamerID); ok {
		return g, nil
	}
	return s.archive.Load(ctx, streamerID)
}

// Leaderboard returns the streamer's viewers ranked by experience,
// annotated with level projections and cached avatar URLs.
func (s *Service) Leaderboard(ctx context.Context, streamerID string) ([]domain.LeaderboardEntry, error) {
	stats, err := s.stats.ListByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(stats))
	for _, stat := range stats {
		entry := domain.LeaderboardEntry{
			Statistic: stat,
			LevelInfo: domain.ProjectLevel(stat.Experience),
		}
		if url, found, err := s.avatars.GetAvatar(ctx, stat.ViewerID); err == nil && found {
			entry.AvatarURL = &url
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetProfile fetches public account metadata for any platform account.
func (s *Service) GetProfile(ctx context.Context, uniqueID string) (*domain.Profile, error) {
	return s.profiles.GetProfile(ctx, uniqueID)
}

// Dashboard returns the creator overview: tracking state plus the
// current or last archived giveaway. A missing giveaway is not an
// error here; an unreachable archive still is.
func (s *Service) Dashboard(ctx context.Context, streamerID string) (*domain.Dashboard, error) {
	dashboard := &domain.Dashboard{
		UniqueID: streamerID,
		Tracking: s.pool.IsTracking(streamerID),
	}

	g, err := s.GetGiveaway(ctx, streamerID)
	switch {
	case err == nil:
		dashboard.Giveaway = g
	case errors.Is(err, domain.ErrGiveawayNotFound):
	default:
		return nil, err
	}

	return dashboard, nil
}
