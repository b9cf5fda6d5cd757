package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/isaackogan/Live-Tok-Backend/internal/errors"
)

// requireAuth resolves the bearer token to a streamer unique ID and
// stores it in the request context under "streamerID".
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		streamerID, found, err := s.auth.Lookup(c.Request().Context(), token)
		if err != nil {
			return apperrors.InternalError("failed to resolve token", err)
		}
		if !found {
			return apperrors.UnauthorizedError("invalid or expired token")
		}

		c.Set("streamerID", streamerID)
		return next(c)
	}
}

func streamerID(c echo.Context) (string, error) {
	id, ok := c.Get("streamerID").(string)
	if !ok || id == "" {
		return "", apperrors.InternalError("missing streamer ID in context", nil)
	}
	return id, nil
}
