package types

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=150"`
	Password    string `json:"password" validate:"required"`
	Phone       string `json:"phone" validate:"max=20"`
	Country     string `json:"country" validate:"max=100"`
	CompanyName string `json:"companyName" validate:"max=150"`
	Role        string `json:"role" validate:"omitempty,pos_role"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Country = strings.TrimSpace(r.Country)
	r.CompanyName = strings.TrimSpace(r.CompanyName)

	return validateStruct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)

	return validateStruct(r)
}

// OAuthLoginRequest carries a provider-issued token: a Google ID token or a
// Facebook user access token.
type OAuthLoginRequest struct {
	Provider string `json:"-" param:"provider" validate:"required,oauth_provider"`
	Token    string `json:"token" validate:"required"`
}

func NewOAuthLoginRequestFromContext(ctx echo.Context) (*OAuthLoginRequest, error) {
	var body OAuthLoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Provider = ctx.Param("provider")

	return &body, nil
}

func (r *OAuthLoginRequest) Validate() error {
	r.Provider = strings.ToLower(strings.TrimSpace(r.Provider))
	r.Token = strings.TrimSpace(r.Token)

	return validateStruct(r)
}
