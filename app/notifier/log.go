package notifier

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender writes the OTP to the service log. Development only.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendPasswordResetOtp(ctx context.Context, n OtpNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"email":      n.Email,
		"otp":        n.Code,
		"expires_at": n.ExpiresAt,
	}).Warn("password reset otp (log notification driver)")
	return nil
}
