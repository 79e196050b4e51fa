package service

import "errors"

// Error kinds. Every caller-visible failure unwraps to exactly one of these.
var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrInvalidToken        = errors.New("invalid token")
	ErrNotificationFailure = errors.New("notification failure")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
)

var (
	ErrPasswordConfirmMismatch = newKindError("new password and confirm password do not match", ErrValidation)
	ErrWeakPassword            = newKindError("password does not meet policy requirements", ErrValidation)
	ErrUnsupportedProvider     = newKindError("unsupported oauth2 provider", ErrValidation)

	ErrInvalidEmailOrOtp   = newKindError("invalid email or OTP", ErrInvalidCredential)
	ErrInvalidOrExpiredOtp = newKindError("invalid or expired OTP", ErrInvalidCredential)
	ErrInvalidCredentials  = newKindError("invalid email or password", ErrInvalidCredential)
	ErrOAuthEmailMissing   = newKindError("email not found from oauth2 provider", ErrInvalidCredential)
	ErrOAuthTokenRejected  = newKindError("oauth2 token rejected by provider", ErrInvalidCredential)

	ErrUserNotFound      = newKindError("user not found", ErrNotFound)
	ErrResetUserNotFound = newKindError("user not found", ErrInvalidCredential, ErrNotFound)

	ErrInvalidResetToken   = newKindError("invalid or expired reset token", ErrInvalidToken)
	ErrInvalidSessionToken = newKindError("invalid or expired token", ErrInvalidToken)

	ErrEmailInUse       = newKindError("email address already in use", ErrConflict)
	ErrProviderMismatch = newKindError("account is registered with a different sign-in provider", ErrConflict)
)

type kindError struct {
	msg   string
	kinds []error
}

func newKindError(msg string, kinds ...error) error {
	return &kindError{msg: msg, kinds: kinds}
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() []error {
	return e.kinds
}
