package middleware

import (
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type sessionTokenValidator interface {
	ValidateSessionToken(tokenString string) (*service.Claims, error)
}

type AuthMiddleware struct {
	validator sessionTokenValidator
}

func NewAuthMiddleware(validator sessionTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth accepts session tokens only; reset tokens are rejected by purpose.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "missing authorization header"})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid authorization header format"})
		}

		claims, err := m.validator.ValidateSessionToken(parts[1])
		if err != nil {
			logrus.Debug("Invalid or expired session token")
			return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", string(claims.Role))

		return next(c)
	}
}
