package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-pos-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type APIKeyMiddleware struct {
	apiKey string
}

// NewAPIKeyMiddleware guards internal routes with a static key. An empty key
// rejects every request.
func NewAPIKeyMiddleware(apiKey string) *APIKeyMiddleware {
	return &APIKeyMiddleware{apiKey: apiKey}
}

func (m *APIKeyMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Let CORS preflight pass.
		if c.Request().Method == http.MethodOptions {
			return next(c)
		}

		apiKey := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
		if apiKey == "" {
			logrus.Debug("Missing x-api-key header")
			return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized"})
		}

		if !MatchAPIKey(m.apiKey, apiKey) {
			logrus.Debug("Invalid x-api-key header")
			return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized"})
		}

		return next(c)
	}
}

// MatchAPIKey compares in constant time.
func MatchAPIKey(expected, got string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
