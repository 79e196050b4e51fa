package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	"github.com/vibast-solutions/ms-go-pos-auth/app/repository"
	"github.com/vibast-solutions/ms-go-pos-auth/app/types"
	"github.com/vibast-solutions/ms-go-pos-auth/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const userCodePrefix = "USR"

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
}

type UserAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.AuthResponse, error)
	Login(ctx context.Context, req *types.LoginRequest) (*types.AuthResponse, error)
	OAuthLogin(ctx context.Context, req *types.OAuthLoginRequest) (*types.AuthResponse, error)
	CurrentUser(ctx context.Context, userID uint64) (*types.UserDTO, error)
	ValidateSessionToken(tokenString string) (*Claims, error)
}

type UserAuthServiceOption func(*userAuthService)

type userAuthService struct {
	db         *sql.DB
	userRepo   userRepository
	tokens     TokenService
	policy     config.PasswordPolicy
	bcryptCost int
	verifiers  map[entity.AuthProvider]IdentityVerifier
	now        func() time.Time
}

func NewUserAuthService(
	db *sql.DB,
	userRepo userRepository,
	tokens TokenService,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		db:         db,
		userRepo:   userRepo,
		tokens:     tokens,
		policy:     cfg.Password.Policy,
		bcryptCost: cfg.Password.BcryptCost,
		verifiers:  make(map[entity.AuthProvider]IdentityVerifier),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithIdentityVerifier(provider entity.AuthProvider, verifier IdentityVerifier) UserAuthServiceOption {
	return func(s *userAuthService) {
		if verifier != nil {
			s.verifiers[provider] = verifier
		}
	}
}

func WithUserClock(now func() time.Time) UserAuthServiceOption {
	return func(s *userAuthService) {
		if now != nil {
			s.now = now
		}
	}
}

// Register creates a local account and signs it in.
func (s *userAuthService) Register(ctx context.Context, req *types.RegisterRequest) (*types.AuthResponse, error) {
	email := NormalizeEmail(req.Email)

	if err := s.policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	role := entity.RoleCustomer
	if strings.TrimSpace(req.Role) != "" {
		parsed, err := entity.ParseRole(req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		role = parsed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txUserRepo := repository.NewUserRepository(tx)
	existing, err := txUserRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	code, err := generateUserCode(ctx, txUserRepo)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Code:          code,
		Name:          req.Name,
		Email:         email,
		Phone:         nullString(req.Phone),
		Country:       nullString(req.Country),
		CompanyName:   nullString(req.CompanyName),
		PasswordHash:  sql.NullString{String: string(hashedPassword), Valid: true},
		Role:          role,
		Status:        entity.StatusActive,
		Provider:      entity.ProviderLocal,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = txUserRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return s.authResponse(user)
}

func (s *userAuthService) Login(ctx context.Context, req *types.LoginRequest) (*types.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// OAuthLogin signs in with a provider token, creating the account on first use.
// An email already registered through another provider is refused.
func (s *userAuthService) OAuthLogin(ctx context.Context, req *types.OAuthLoginRequest) (*types.AuthResponse, error) {
	provider, err := entity.ParseAuthProvider(req.Provider)
	if err != nil {
		return nil, ErrUnsupportedProvider
	}
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}

	identity, err := verifier.Verify(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(identity.Email) == "" {
		return nil, ErrOAuthEmailMissing
	}
	email := NormalizeEmail(identity.Email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txUserRepo := repository.NewUserRepository(tx)
	user, err := txUserRepo.FindByEmailForUpdate(ctx, email)
	if err != nil {
		return nil, err
	}

	if user != nil {
		if user.Provider != provider {
			return nil, ErrProviderMismatch
		}
		if identity.Name != "" {
			user.Name = identity.Name
		}
		user.ImageURL = nullString(identity.ImageURL)
		user.ProviderID = nullString(identity.ProviderID)
		if err = txUserRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	} else {
		code, err := generateUserCode(ctx, txUserRepo)
		if err != nil {
			return nil, err
		}

		name := identity.Name
		if name == "" {
			name = email
		}
		now := s.now()
		user = &entity.User{
			Code:          code,
			Name:          name,
			Email:         email,
			Role:          entity.RoleCustomer,
			Status:        entity.StatusActive,
			Provider:      provider,
			ProviderID:    nullString(identity.ProviderID),
			ImageURL:      nullString(identity.ImageURL),
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err = txUserRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "provider": provider}).Info("user registered through oauth2")
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.authResponse(user)
}

func (s *userAuthService) CurrentUser(ctx context.Context, userID uint64) (*types.UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return types.NewUserDTO(user), nil
}

func (s *userAuthService) ValidateSessionToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateSessionToken(tokenString)
}

func (s *userAuthService) authResponse(user *entity.User) (*types.AuthResponse, error) {
	accessToken, err := s.tokens.IssueSessionToken(user)
	if err != nil {
		return nil, err
	}

	return &types.AuthResponse{
		AccessToken: accessToken,
		TokenType:   types.TokenTypeBearer,
		User:        types.NewUserDTO(user),
	}, nil
}

type userCodeChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

func generateUserCode(ctx context.Context, repo userCodeChecker) (string, error) {
	for {
		code := userCodePrefix + strings.ToUpper(uuid.NewString()[:8])
		exists, err := repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}
