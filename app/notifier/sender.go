package notifier

import (
	"context"
	"time"
)

// OtpNotification is the payload handed to a Sender. Code is the plain OTP and
// must not be logged by anything except the log driver.
type OtpNotification struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	SentAt    time.Time `json:"sentAt"`
}

// Sender delivers a password reset OTP to the account holder. Implementations
// must return once ctx is done.
type Sender interface {
	SendPasswordResetOtp(ctx context.Context, notification OtpNotification) error
}
