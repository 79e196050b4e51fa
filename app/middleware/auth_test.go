package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	"github.com/vibast-solutions/ms-go-pos-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/config"

	"github.com/labstack/echo/v4"
)

func newTokens(t *testing.T) service.TokenService {
	t.Helper()

	tokens, err := service.NewTokenService(config.JWTConfig{
		Secret:         "test-secret",
		Issuer:         "pos-auth",
		AccessTokenTTL: time.Hour,
		ResetTokenTTL:  15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	return tokens
}

func runRequireAuth(t *testing.T, m *middleware.AuthMiddleware, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if next == nil {
		next = func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	}
	if err := m.RequireAuth(next)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestRequireAuth_Rejections(t *testing.T) {
	tokens := newTokens(t)
	resetToken, err := tokens.IssueResetToken(7, "jane@example.com")
	if err != nil {
		t.Fatalf("failed to issue reset token: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Token abc"},
		{name: "garbage token", header: "Bearer invalid-token"},
		{name: "reset token used as session", header: "Bearer " + resetToken},
	}

	m := middleware.NewAuthMiddleware(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runRequireAuth(t, m, tt.header, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAuth_SetsContextOnValidToken(t *testing.T) {
	tokens := newTokens(t)
	token, err := tokens.IssueSessionToken(&entity.User{ID: 1, Email: "user@example.com", Role: entity.RoleBiller})
	if err != nil {
		t.Fatalf("failed to issue session token: %v", err)
	}

	m := middleware.NewAuthMiddleware(tokens)
	rec := runRequireAuth(t, m, "bearer "+token, func(c echo.Context) error {
		userID, ok := c.Get("user_id").(uint64)
		if !ok || userID != 1 {
			t.Fatalf("expected user_id 1, got %v", c.Get("user_id"))
		}
		if role, _ := c.Get("user_role").(string); role != "biller" {
			t.Fatalf("expected user_role biller, got %v", c.Get("user_role"))
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
