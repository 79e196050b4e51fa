package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	"github.com/vibast-solutions/ms-go-pos-auth/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenPurpose string

const (
	PurposeSession       TokenPurpose = "session"
	PurposePasswordReset TokenPurpose = "password_reset"
)

type Claims struct {
	UserID  uint64       `json:"user_id"`
	Email   string       `json:"email"`
	Role    entity.Role  `json:"role,omitempty"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens with a single process-wide
// secret. Session and reset tokens differ only by their purpose claim and TTL.
type TokenService interface {
	IssueSessionToken(user *entity.User) (string, error)
	ValidateSessionToken(tokenString string) (*Claims, error)
	IssueResetToken(userID uint64, email string) (string, error)
	ValidateResetToken(tokenString string) (uint64, error)
}

type TokenServiceOption func(*tokenService)

type tokenService struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewTokenService(cfg config.JWTConfig, opts ...TokenServiceOption) (TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	svc := &tokenService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		accessTTL: cfg.AccessTokenTTL,
		resetTTL:  cfg.ResetTokenTTL,
		now:       time.Now,
	}
	if svc.resetTTL <= 0 {
		svc.resetTTL = 15 * time.Minute
	}
	if svc.accessTTL <= 0 {
		svc.accessTTL = 24 * time.Hour
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(s *tokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *tokenService) IssueSessionToken(user *entity.User) (string, error) {
	return s.sign(user.ID, user.Email, user.Role, PurposeSession, s.accessTTL)
}

func (s *tokenService) ValidateSessionToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil || claims.Purpose != PurposeSession {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}

func (s *tokenService) IssueResetToken(userID uint64, email string) (string, error) {
	return s.sign(userID, email, "", PurposePasswordReset, s.resetTTL)
}

func (s *tokenService) ValidateResetToken(tokenString string) (uint64, error) {
	claims, err := s.parse(tokenString)
	if err != nil || claims.Purpose != PurposePasswordReset {
		return 0, ErrInvalidResetToken
	}

	// sub and user_id are written together; disagreement means the payload
	// was not produced by this service.
	subject, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || subject != claims.UserID || subject == 0 {
		return 0, ErrInvalidResetToken
	}
	return subject, nil
}

func (s *tokenService) sign(userID uint64, email string, role entity.Role, purpose TokenPurpose, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
