package types

import (
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
)

const TokenTypeBearer = "Bearer"

const (
	ForgotPasswordMessage = "If your email exists in our system, you will receive an OTP code shortly."
	ResendOtpMessage      = "If your email exists in our system, you will receive a new OTP code shortly."
	ResetPasswordMessage  = "Password has been reset successfully."
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type VerifyOtpResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

type AuthResponse struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType"`
	User        *UserDTO `json:"user"`
}

type UserDTO struct {
	ID            uint64    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Country       string    `json:"country,omitempty"`
	CompanyName   string    `json:"companyName,omitempty"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	Provider      string    `json:"provider"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewUserDTO never exposes the password hash or provider subject id.
func NewUserDTO(user *entity.User) *UserDTO {
	return &UserDTO{
		ID:            user.ID,
		Code:          user.Code,
		Name:          user.Name,
		Email:         user.Email,
		Phone:         user.Phone.String,
		Country:       user.Country.String,
		CompanyName:   user.CompanyName.String,
		Role:          string(user.Role),
		Status:        user.Status,
		Provider:      string(user.Provider),
		ImageURL:      user.ImageURL.String,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
