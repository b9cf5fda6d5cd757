package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public lookups
	s.echo.GET("/creator/:username", s.handleLeaderboard)
	s.echo.GET("/profile/:username", s.handleProfile)

	// Creator routes (bearer token)
	s.echo.POST("/tracking/:action", s.handleTracking, s.requireAuth)
	s.echo.GET("/dashboard", s.handleDashboard, s.requireAuth)

	s.echo.POST("/giveaway", s.handleCreateGiveaway, s.requireAuth)
	s.echo.GET("/giveaway", s.handleGetGiveaway, s.requireAuth)
	s.echo.PATCH("/giveaway", s.handleUpdateGiveaway, s.requireAuth)
	s.echo.DELETE("/giveaway", s.handleFinalizeGiveaway, s.requireAuth)
}
