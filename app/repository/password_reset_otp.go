package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
)

type PasswordResetOtpRepository struct {
	db DBTX
}

func NewPasswordResetOtpRepository(db DBTX) *PasswordResetOtpRepository {
	return &PasswordResetOtpRepository{db: db}
}

func (r *PasswordResetOtpRepository) Create(ctx context.Context, otp *entity.PasswordResetOtp) error {
	query := `
		INSERT INTO password_reset_otps (user_id, otp, expires_at, created_at, is_used)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		otp.UserID,
		otp.Code,
		otp.ExpiresAt,
		otp.CreatedAt,
		otp.IsUsed,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	otp.ID = uint64(id)
	return nil
}

// FindActiveForUpdate returns the newest unused, unexpired code matching
// (userID, code) and locks the row. It returns nil when nothing matches.
func (r *PasswordResetOtpRepository) FindActiveForUpdate(ctx context.Context, userID uint64, code string, now time.Time) (*entity.PasswordResetOtp, error) {
	query := `
		SELECT id, user_id, otp, expires_at, created_at, is_used
		FROM password_reset_otps
		WHERE user_id = ? AND otp = ? AND is_used = 0 AND expires_at > ?
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE
	`
	otp := &entity.PasswordResetOtp{}
	err := r.db.QueryRowContext(ctx, query, userID, code, now).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.CreatedAt,
		&otp.IsUsed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return otp, nil
}

// MarkUsed flips is_used only if it is still unset and reports how many rows
// changed. Zero means another caller consumed the code first.
func (r *PasswordResetOtpRepository) MarkUsed(ctx context.Context, id uint64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE password_reset_otps SET is_used = 1 WHERE id = ? AND is_used = 0`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PasswordResetOtpRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_otps WHERE user_id = ?`, userID)
	return err
}

func (r *PasswordResetOtpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_otps WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
