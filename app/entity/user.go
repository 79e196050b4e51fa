package entity

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleBiller     Role = "biller"
	RoleSupplier   Role = "supplier"
	RoleStoreOwner Role = "store_owner"
	RoleCustomer   Role = "customer"
)

// ParseRole accepts any letter case, matching rows written before roles were
// normalized to lower case.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleBiller, RoleSupplier, RoleStoreOwner, RoleCustomer:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

type AuthProvider string

const (
	ProviderLocal    AuthProvider = "local"
	ProviderGoogle   AuthProvider = "google"
	ProviderFacebook AuthProvider = "facebook"
)

func ParseAuthProvider(value string) (AuthProvider, error) {
	provider := AuthProvider(strings.ToLower(strings.TrimSpace(value)))
	switch provider {
	case ProviderLocal, ProviderGoogle, ProviderFacebook:
		return provider, nil
	}
	return "", fmt.Errorf("unknown auth provider %q", value)
}

const StatusActive = "active"

type User struct {
	ID            uint64
	Code          string
	Name          string
	Email         string
	Phone         sql.NullString
	Country       sql.NullString
	CompanyName   sql.NullString
	PasswordHash  sql.NullString
	Role          Role
	Status        string
	Provider      AuthProvider
	ProviderID    sql.NullString
	ImageURL      sql.NullString
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPassword reports whether the account can log in with a local password.
// Accounts created through an OAuth provider have no hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}
