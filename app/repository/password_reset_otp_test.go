package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	"github.com/vibast-solutions/ms-go-pos-auth/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertOtpQuery        = `(?s)INSERT INTO password_reset_otps \(user_id, otp, expires_at, created_at, is_used\)\s+VALUES \(\?, \?, \?, \?, \?\)`
	findActiveOtpQuery    = `(?s)SELECT id, user_id, otp, expires_at, created_at, is_used\s+FROM password_reset_otps\s+WHERE user_id = \? AND otp = \? AND is_used = 0 AND expires_at > \?\s+ORDER BY id DESC\s+LIMIT 1\s+FOR UPDATE`
	markOtpUsedQuery      = `UPDATE password_reset_otps SET is_used = 1 WHERE id = \? AND is_used = 0`
	deleteOtpsByUserQuery = `DELETE FROM password_reset_otps WHERE user_id = \?`
	deleteExpiredOtpQuery = `DELETE FROM password_reset_otps WHERE expires_at < \?`
)

var otpColumns = []string{"id", "user_id", "otp", "expires_at", "created_at", "is_used"}

func TestPasswordResetOtpRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewPasswordResetOtpRepository(db)
	now := time.Now()
	otp := &entity.PasswordResetOtp{
		UserID:    7,
		Code:      "042917",
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}

	mock.ExpectExec(insertOtpQuery).
		WithArgs(uint64(7), "042917", otp.ExpiresAt, now, false).
		WillReturnResult(sqlmock.NewResult(3, 1))

	if err := repo.Create(context.Background(), otp); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if otp.ID != 3 {
		t.Fatalf("expected ID 3, got %d", otp.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPasswordResetOtpRepository_FindActiveForUpdate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewPasswordResetOtpRepository(db)
	now := time.Now()

	mock.ExpectQuery(findActiveOtpQuery).
		WithArgs(uint64(7), "123456", now).
		WillReturnRows(sqlmock.NewRows(otpColumns).AddRow(
			uint64(3), uint64(7), "123456", now.Add(time.Minute), now.Add(-4*time.Minute), false,
		))

	otp, err := repo.FindActiveForUpdate(context.Background(), 7, "123456", now)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if otp == nil || otp.ID != 3 {
		t.Fatalf("unexpected otp: %+v", otp)
	}
	if !otp.IsActive(now) {
		t.Fatalf("expected otp to be active")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPasswordResetOtpRepository_FindActiveForUpdateNoMatch(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewPasswordResetOtpRepository(db)
	now := time.Now()

	mock.ExpectQuery(findActiveOtpQuery).
		WithArgs(uint64(7), "000000", now).
		WillReturnRows(sqlmock.NewRows(otpColumns))

	otp, err := repo.FindActiveForUpdate(context.Background(), 7, "000000", now)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if otp != nil {
		t.Fatalf("expected no otp, got %+v", otp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPasswordResetOtpRepository_MarkUsed(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewPasswordResetOtpRepository(db)

	mock.ExpectExec(markOtpUsedQuery).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markOtpUsedQuery).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.MarkUsed(context.Background(), 3)
	if err != nil {
		t.Fatalf("mark used failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row affected, got %d", rows)
	}

	rows, err = repo.MarkUsed(context.Background(), 3)
	if err != nil {
		t.Fatalf("second mark used failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows affected on second call, got %d", rows)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPasswordResetOtpRepository_DeleteByUserID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewPasswordResetOtpRepository(db)

	mock.ExpectExec(deleteOtpsByUserQuery).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DeleteByUserID(context.Background(), 7); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPasswordResetOtpRepository_DeleteExpired(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewPasswordResetOtpRepository(db)
	now := time.Now()

	mock.ExpectExec(deleteExpiredOtpQuery).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	deleted, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 4 {
		t.Fatalf("expected 4 rows deleted, got %d", deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPasswordResetOtpRepository_DeleteExpiredError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewPasswordResetOtpRepository(db)
	dbErr := errors.New("connection reset")

	mock.ExpectExec(deleteExpiredOtpQuery).WillReturnError(dbErr)

	if _, err := repo.DeleteExpired(context.Background(), time.Now()); !errors.Is(err, dbErr) {
		t.Fatalf("expected %v, got %v", dbErr, err)
	}
}

func TestPasswordResetOtp_IsActive(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		otp  entity.PasswordResetOtp
		want bool
	}{
		{"fresh", entity.PasswordResetOtp{ExpiresAt: now.Add(time.Minute)}, true},
		{"used", entity.PasswordResetOtp{ExpiresAt: now.Add(time.Minute), IsUsed: true}, false},
		{"expired", entity.PasswordResetOtp{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", entity.PasswordResetOtp{ExpiresAt: now}, false},
	}
	for _, tc := range cases {
		if got := tc.otp.IsActive(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
