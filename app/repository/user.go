package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
)

const userColumns = `id, code, name, email, phone, country, company_name, password_hash, role, status,
		       provider, provider_id, image_url, email_verified, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (code, name, email, phone, country, company_name, password_hash, role, status,
			provider, provider_id, image_url, email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Code,
		user.Name,
		user.Email,
		user.Phone,
		user.Country,
		user.CompanyName,
		user.PasswordHash,
		string(user.Role),
		user.Status,
		string(user.Provider),
		user.ProviderID,
		user.ImageURL,
		user.EmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = ?
	`
	return r.findOne(ctx, query, email)
}

// FindByEmailForUpdate locks the user row until the surrounding transaction
// ends. Password reset steps for the same user are serialized on this lock.
func (r *UserRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = ? FOR UPDATE
	`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE code = ?`, code).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			name = ?,
			phone = ?,
			country = ?,
			company_name = ?,
			password_hash = ?,
			role = ?,
			status = ?,
			provider_id = ?,
			image_url = ?,
			email_verified = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Phone,
		user.Country,
		user.CompanyName,
		user.PasswordHash,
		string(user.Role),
		user.Status,
		user.ProviderID,
		user.ImageURL,
		user.EmailVerified,
		user.UpdatedAt,
		user.ID,
	)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint64, passwordHash string, updatedAt time.Time) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, passwordHash, updatedAt, userID)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user := &entity.User{}
	var role, provider string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Code,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Country,
		&user.CompanyName,
		&user.PasswordHash,
		&role,
		&user.Status,
		&provider,
		&user.ProviderID,
		&user.ImageURL,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if user.Role, err = entity.ParseRole(role); err != nil {
		return nil, err
	}
	if user.Provider, err = entity.ParseAuthProvider(provider); err != nil {
		return nil, err
	}
	return user, nil
}
