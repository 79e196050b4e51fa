package service_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/config"

	"github.com/golang-jwt/jwt/v5"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:         "test-secret",
		Issuer:         "pos-auth",
		AccessTokenTTL: time.Hour,
		ResetTokenTTL:  15 * time.Minute,
	}
}

func newTestTokenService(t *testing.T, opts ...service.TokenServiceOption) service.TokenService {
	t.Helper()

	tokens, err := service.NewTokenService(testJWTConfig(), opts...)
	if err != nil {
		t.Fatalf("new token service failed: %v", err)
	}
	return tokens
}

func tamperSignature(token string) string {
	dot := strings.LastIndex(token, ".")
	sig := []byte(token[dot+1:])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	return token[:dot+1] + string(sig)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := service.NewTokenService(config.JWTConfig{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	tokens := newTestTokenService(t)

	token, err := tokens.IssueResetToken(42, "jane@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	userID, err := tokens.ValidateResetToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}
}

func TestResetTokenClaims(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := newTestTokenService(t, service.WithTokenClock(func() time.Time { return issuedAt }))

	token, err := tokens.IssueResetToken(42, "jane@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims := &service.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse unverified failed: %v", err)
	}
	if claims.Purpose != service.PurposePasswordReset {
		t.Fatalf("expected purpose %q, got %q", service.PurposePasswordReset, claims.Purpose)
	}
	if claims.Subject != "42" || claims.Email != "jane@example.com" {
		t.Fatalf("unexpected subject/email: %q %q", claims.Subject, claims.Email)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("expected 15m lifetime, got %v", got)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestResetTokenTamperedSignature(t *testing.T) {
	tokens := newTestTokenService(t)

	token, err := tokens.IssueResetToken(42, "jane@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err = tokens.ValidateResetToken(tamperSignature(token)); !errors.Is(err, service.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
	if !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected error kind ErrInvalidToken, got %v", err)
	}
}

func TestResetTokenExpired(t *testing.T) {
	now := time.Now()
	issuer := newTestTokenService(t, service.WithTokenClock(func() time.Time { return now }))
	token, err := issuer.IssueResetToken(42, "jane@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	stillValid := newTestTokenService(t, service.WithTokenClock(func() time.Time { return now.Add(14 * time.Minute) }))
	if _, err = stillValid.ValidateResetToken(token); err != nil {
		t.Fatalf("expected token to be valid before expiry, got %v", err)
	}

	later := newTestTokenService(t, service.WithTokenClock(func() time.Time { return now.Add(16 * time.Minute) }))
	if _, err = later.ValidateResetToken(token); !errors.Is(err, service.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken after expiry, got %v", err)
	}
}

func TestResetTokenRejectsSessionToken(t *testing.T) {
	tokens := newTestTokenService(t)

	sessionToken, err := tokens.IssueSessionToken(&entity.User{ID: 42, Email: "jane@example.com", Role: entity.RoleCustomer})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	if _, err = tokens.ValidateResetToken(sessionToken); !errors.Is(err, service.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for session token, got %v", err)
	}
}

func TestSessionTokenRejectsResetToken(t *testing.T) {
	tokens := newTestTokenService(t)

	resetToken, err := tokens.IssueResetToken(42, "jane@example.com")
	if err != nil {
		t.Fatalf("issue reset failed: %v", err)
	}

	if _, err = tokens.ValidateSessionToken(resetToken); !errors.Is(err, service.ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken for reset token, got %v", err)
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tokens := newTestTokenService(t)

	token, err := tokens.IssueSessionToken(&entity.User{ID: 9, Email: "owner@example.com", Role: entity.RoleStoreOwner})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := tokens.ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != 9 || claims.Role != entity.RoleStoreOwner || claims.Email != "owner@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestResetTokenWrongSecret(t *testing.T) {
	other, err := service.NewTokenService(config.JWTConfig{Secret: "another-secret", Issuer: "pos-auth"})
	if err != nil {
		t.Fatalf("new token service failed: %v", err)
	}
	token, err := other.IssueResetToken(42, "jane@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	tokens := newTestTokenService(t)
	if _, err = tokens.ValidateResetToken(token); !errors.Is(err, service.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for foreign secret, got %v", err)
	}
}

func TestResetTokenMalformed(t *testing.T) {
	tokens := newTestTokenService(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := tokens.ValidateResetToken(token); !errors.Is(err, service.ErrInvalidResetToken) {
			t.Fatalf("expected ErrInvalidResetToken for %q, got %v", token, err)
		}
	}
}

func TestResetTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := &service.Claims{
		UserID:  42,
		Purpose: service.PurposePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    "pos-auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none failed: %v", err)
	}

	tokens := newTestTokenService(t)
	if _, err = tokens.ValidateResetToken(token); !errors.Is(err, service.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for alg=none, got %v", err)
	}
}
