package entity

import "time"

type PasswordResetOtp struct {
	ID        uint64
	UserID    uint64
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
	IsUsed    bool
}

// IsActive reports whether the code can still be redeemed at now.
func (o *PasswordResetOtp) IsActive(now time.Time) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt)
}
