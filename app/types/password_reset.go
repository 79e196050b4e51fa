package types

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// ForgotPasswordRequest is shared by forgot-password and resend-otp.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func NewForgotPasswordRequestFromContext(ctx echo.Context) (*ForgotPasswordRequest, error) {
	var body ForgotPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)

	return validateStruct(r)
}

type VerifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required"`
}

func NewVerifyOtpRequestFromContext(ctx echo.Context) (*VerifyOtpRequest, error) {
	var body VerifyOtpRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *VerifyOtpRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Otp = strings.TrimSpace(r.Otp)

	return validateStruct(r)
}

type ResetPasswordRequest struct {
	ResetToken      string `json:"resetToken" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	r.ResetToken = strings.TrimSpace(r.ResetToken)

	return validateStruct(r)
}
