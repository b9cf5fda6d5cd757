// Package server is the echo HTTP layer: routes, handlers, bearer-token
// auth, and per-IP rate limiting.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/isaackogan/Live-Tok-Backend/internal/config"
	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
	apperrors "github.com/isaackogan/Live-Tok-Backend/internal/errors"
)

// AppService is the application surface the handlers consume.
type AppService interface {
	StartTracking(ctx context.Context, streamerID string) error
	StopTracking(streamerID string)
	IsTracking(streamerID string) bool
	CreateGiveaway(streamerID, prizeName, joinWord string, winnerCount, durationMinutes int) (*domain.Giveaway, error)
	UpdateGiveaway(streamerID, prizeName, joinWord string, winnerCount int) (*domain.Giveaway, error)
	FinalizeGiveaway(ctx context.Context, streamerID string, pickWinner bool) (*domain.Giveaway, error)
	GetGiveaway(ctx context.Context, streamerID string) (*domain.Giveaway, error)
	Leaderboard(ctx context.Context, streamerID string) ([]domain.LeaderboardEntry, error)
	GetProfile(ctx context.Context, uniqueID string) (*domain.Profile, error)
	Dashboard(ctx context.Context, streamerID string) (*domain.Dashboard, error)
}

// HealthChecker pings one backing dependency for the readiness probe.
type HealthChecker func(ctx context.Context) error

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	app       AppService
	auth      domain.AuthStore
	checks    map[string]HealthChecker
	startTime time.Time
}

func NewServer(cfg *config.Config, app AppService, auth domain.AuthStore, checks map[string]HealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(newRateLimiter(cfg.RatePerSecond, cfg.RateBurst).middleware())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		auth:      auth,
		checks:    checks,
		startTime: time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
