package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	"github.com/vibast-solutions/ms-go-pos-auth/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	selectUserColumns         = `(?s)SELECT id, code, name, email, phone, country, company_name, password_hash, role, status,\s+provider, provider_id, image_url, email_verified, created_at, updated_at\s+FROM users`
	findByEmailQuery          = selectUserColumns + ` WHERE email = \?`
	findByEmailForUpdateQuery = selectUserColumns + ` WHERE email = \? FOR UPDATE`
	findByIDQuery             = selectUserColumns + ` WHERE id = \?`
	insertUserQuery           = `(?s)INSERT INTO users \(code, name, email, phone, country, company_name, password_hash, role, status,\s+provider, provider_id, image_url, email_verified, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?, \?, \?, \?, \?, \?, \?, \?\)`
	existsByCodeQuery         = `SELECT COUNT\(1\) FROM users WHERE code = \?`
	updateUserQuery           = `(?s)UPDATE users SET\s+name = \?,\s+phone = \?,\s+country = \?,\s+company_name = \?,\s+password_hash = \?,\s+role = \?,\s+status = \?,\s+provider_id = \?,\s+image_url = \?,\s+email_verified = \?,\s+updated_at = \?\s+WHERE id = \?`
	updatePasswordQuery       = `UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
)

var userColumns = []string{
	"id",
	"code",
	"name",
	"email",
	"phone",
	"country",
	"company_name",
	"password_hash",
	"role",
	"status",
	"provider",
	"provider_id",
	"image_url",
	"email_verified",
	"created_at",
	"updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func userRow(now time.Time, role, provider string) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		uint64(7),
		"USR1A2B3C4D",
		"Jane Doe",
		"jane@example.com",
		"0900000000",
		nil,
		"Dreams Store",
		"hash",
		role,
		"active",
		provider,
		nil,
		nil,
		false,
		now,
		now,
	)
}

func TestUserRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()
	user := &entity.User{
		Code:         "USR1A2B3C4D",
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		PasswordHash: sql.NullString{String: "hash", Valid: true},
		Role:         entity.RoleCustomer,
		Status:       entity.StatusActive,
		Provider:     entity.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(insertUserQuery).
		WithArgs(
			user.Code,
			user.Name,
			user.Email,
			user.Phone,
			user.Country,
			user.CompanyName,
			user.PasswordHash,
			"customer",
			"active",
			"local",
			user.ProviderID,
			user.ImageURL,
			false,
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(12, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID != 12 {
		t.Fatalf("expected ID 12, got %d", user.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("jane@example.com").
		WillReturnRows(userRow(now, "STORE_OWNER", "Local"))

	user, err := repo.FindByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.ID != 7 {
		t.Fatalf("expected user ID 7, got %+v", user)
	}
	if user.Role != entity.RoleStoreOwner {
		t.Fatalf("expected role store_owner, got %q", user.Role)
	}
	if user.Provider != entity.ProviderLocal {
		t.Fatalf("expected provider local, got %q", user.Provider)
	}
	if user.Country.Valid {
		t.Fatalf("expected NULL country, got %+v", user.Country)
	}
	if !user.HasPassword() {
		t.Fatalf("expected user to have a password")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByEmailUnknownRole(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("jane@example.com").
		WillReturnRows(userRow(time.Now(), "cashier", "local"))

	if _, err := repo.FindByEmail(context.Background(), "jane@example.com"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestUserRepository_FindByEmailForUpdate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(findByEmailForUpdateQuery).
		WithArgs("jane@example.com").
		WillReturnRows(userRow(time.Now(), "customer", "google"))

	user, err := repo.FindByEmailForUpdate(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.Provider != entity.ProviderGoogle {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(findByIDQuery).
		WithArgs(uint64(7)).
		WillReturnRows(userRow(time.Now(), "admin", "local"))

	user, err := repo.FindByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.Role != entity.RoleAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_ExistsByCode(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(existsByCodeQuery).
		WithArgs("USR1A2B3C4D").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "USR1A2B3C4D")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Fatalf("expected code to exist")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	user := &entity.User{
		ID:            7,
		Name:          "Jane Doe",
		ImageURL:      sql.NullString{String: "https://img.example.com/jane.png", Valid: true},
		Role:          entity.RoleCustomer,
		Status:        entity.StatusActive,
		EmailVerified: true,
	}

	mock.ExpectExec(updateUserQuery).
		WithArgs(
			user.Name,
			user.Phone,
			user.Country,
			user.CompanyName,
			user.PasswordHash,
			"customer",
			"active",
			user.ProviderID,
			user.ImageURL,
			true,
			sqlmock.AnyArg(),
			user.ID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), user); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if user.UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to be set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec(updatePasswordQuery).
		WithArgs("new-hash", now, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), 7, "new-hash", now); err != nil {
		t.Fatalf("update password failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
