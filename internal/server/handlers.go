package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/isaackogan/Live-Tok-Backend/internal/errors"
)

const readinessTimeout = 5 * time.Second

type giveawayRequest struct {
	PrizeName       string `json:"name"`
	JoinWord        string `json:"join_word"`
	WinnerCount     int    `json:"winner_count"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (s *Server) handleTracking(c echo.Context) error {
	id, err := streamerID(c)
	if err != nil {
		return err
	}

	switch c.Param("action") {
	case "start":
		if err := s.app.StartTracking(c.Request().Context(), id); err != nil {
			return err
		}
	case "stop":
		s.app.StopTracking(id)
	default:
		return apperrors.ValidationError("action must be start or stop").WithField("action", c.Param("action"))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"unique_id": id,
		"tracking":  s.app.IsTracking(id),
	})
}

func (s *Server) handleDashboard(c echo.Context) error {
	id, err := streamerID(c)
	if err != nil {
		return err
	}

	dashboard, err := s.app.Dashboard(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (s *Server) handleCreateGiveaway(c echo.Context) error {
	id, err := streamerID(c)
	if err != nil {
		return err
	}

	var req giveawayRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	g, err := s.app.CreateGiveaway(id, req.PrizeName, req.JoinWord, req.WinnerCount, req.DurationMinutes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *Server) handleGetGiveaway(c echo.Context) error {
	id, err := streamerID(c)
	if err != nil {
		return err
	}

	g, err := s.app.GetGiveaway(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleUpdateGiveaway(c echo.Context) error {
	id, err := streamerID(c)
	if err != nil {
		return err
	}

	var req giveawayRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	g, err := s.app.UpdateGiveaway(id, req.PrizeName, req.JoinWord, req.WinnerCount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleFinalizeGiveaway(c echo.Context) error {
	id, err := streamerID(c)
	if err != nil {
		return err
	}

	pickWinner := true
	if raw := c.QueryParam("pick_winner"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.ValidationError("pick_winner must be a boolean").WithField("pick_winner", raw)
		}
		pickWinner = parsed
	}

	g, err := s.app.FinalizeGiveaway(c.Request().Context(), id, pickWinner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleLeaderboard(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return apperrors.ValidationError("username is required")
	}

	entries, err := s.app.Leaderboard(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"unique_id":   username,
		"leaderboard": entries,
	})
}

func (s *Server) handleProfile(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return apperrors.ValidationError("username is required")
	}

	profile, err := s.app.GetProfile(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":       "unhealthy",
				"failed_check": name,
				"error":        err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
