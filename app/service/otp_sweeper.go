package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/lock"

	"github.com/sirupsen/logrus"
)

const otpSweepLockKey = "pos-auth:otp-sweep"

type OtpCleaner interface {
	CleanupExpiredOtps(ctx context.Context) (int64, error)
}

// OtpSweeper periodically purges expired codes. Replicas share the lease key,
// so one sweep runs per interval across the deployment.
type OtpSweeper struct {
	cleaner  OtpCleaner
	locker   lock.Locker
	interval time.Duration
}

func NewOtpSweeper(cleaner OtpCleaner, locker lock.Locker, interval time.Duration) *OtpSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OtpSweeper{cleaner: cleaner, locker: locker, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *OtpSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logrus.WithField("interval", s.interval.String()).Info("otp sweeper started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("otp sweeper stopped")
			return
		case <-ticker.C:
			if _, _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("otp sweep failed")
			}
		}
	}
}

// SweepOnce reports whether this replica ran the sweep. The lease is kept
// until it expires so other replicas skip the same interval; it is released
// early only when the sweep failed.
func (s *OtpSweeper) SweepOnce(ctx context.Context) (int64, bool, error) {
	lease, err := s.locker.TryAcquire(ctx, otpSweepLockKey, s.leaseTTL())
	if errors.Is(err, lock.ErrNotAcquired) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	deleted, err := s.cleaner.CleanupExpiredOtps(ctx)
	if err != nil {
		if releaseErr := lease.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			logrus.WithError(releaseErr).Warn("failed to release otp sweep lock")
		}
		return 0, true, err
	}
	return deleted, true, nil
}

func (s *OtpSweeper) leaseTTL() time.Duration {
	ttl := s.interval - s.interval/10
	if ttl <= 0 {
		ttl = s.interval
	}
	return ttl
}
