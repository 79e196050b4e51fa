package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	"github.com/vibast-solutions/ms-go-pos-auth/app/metrics"
	"github.com/vibast-solutions/ms-go-pos-auth/app/notifier"
	"github.com/vibast-solutions/ms-go-pos-auth/app/repository"
	"github.com/vibast-solutions/ms-go-pos-auth/app/types"
	"github.com/vibast-solutions/ms-go-pos-auth/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const VerifyOtpSuccessMessage = "OTP verified successfully. Use the reset token to change your password."

// PasswordResetService runs the three-step OTP password recovery flow.
//
// RequestReset and VerifyOtp lock the user row for the duration of their
// transaction, so reset steps for one user never interleave.
type PasswordResetService interface {
	RequestReset(ctx context.Context, req *types.ForgotPasswordRequest) error
	VerifyOtp(ctx context.Context, req *types.VerifyOtpRequest) (*types.VerifyOtpResponse, error)
	ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error
	CleanupExpiredOtps(ctx context.Context) (int64, error)
}

type PasswordResetServiceOption func(*passwordResetService)

type passwordResetService struct {
	db            *sql.DB
	tokens        TokenService
	sender        notifier.Sender
	policy        config.PasswordPolicy
	bcryptCost    int
	otpTTL        time.Duration
	notifyTimeout time.Duration
	metrics       *metrics.Reset
	now           func() time.Time
}

func NewPasswordResetService(
	db *sql.DB,
	tokens TokenService,
	sender notifier.Sender,
	cfg *config.Config,
	opts ...PasswordResetServiceOption,
) PasswordResetService {
	svc := &passwordResetService{
		db:            db,
		tokens:        tokens,
		sender:        sender,
		policy:        cfg.Password.Policy,
		bcryptCost:    cfg.Password.BcryptCost,
		otpTTL:        cfg.OTP.TTL,
		notifyTimeout: cfg.Notification.Timeout,
		now:           time.Now,
	}
	if svc.otpTTL <= 0 {
		svc.otpTTL = 5 * time.Minute
	}
	if svc.notifyTimeout <= 0 {
		svc.notifyTimeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithResetMetrics(m *metrics.Reset) PasswordResetServiceOption {
	return func(s *passwordResetService) {
		s.metrics = m
	}
}

func WithResetClock(now func() time.Time) PasswordResetServiceOption {
	return func(s *passwordResetService) {
		if now != nil {
			s.now = now
		}
	}
}

// RequestReset replaces any outstanding code for the account with a fresh one
// and sends it. An unknown email is a silent no-op.
func (s *passwordResetService) RequestReset(ctx context.Context, req *types.ForgotPasswordRequest) error {
	email := NormalizeEmail(req.Email)
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	user, err := repository.NewUserRepository(tx).FindByEmailForUpdate(ctx, email)
	if err != nil {
		s.metrics.ObserveRequest(metrics.OutcomeError)
		return err
	}
	if user == nil {
		s.metrics.ObserveRequest(metrics.OutcomeUnknownEmail)
		return nil
	}

	code, err := generateOtpCode()
	if err != nil {
		return err
	}

	otpRepo := repository.NewPasswordResetOtpRepository(tx)
	if err = otpRepo.DeleteByUserID(ctx, user.ID); err != nil {
		s.metrics.ObserveRequest(metrics.OutcomeError)
		return err
	}

	otp := &entity.PasswordResetOtp{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
	if err = otpRepo.Create(ctx, otp); err != nil {
		s.metrics.ObserveRequest(metrics.OutcomeError)
		return err
	}

	if err = tx.Commit(); err != nil {
		s.metrics.ObserveRequest(metrics.OutcomeError)
		return err
	}

	err = s.dispatch(ctx, notifier.OtpNotification{
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: otp.ExpiresAt,
		SentAt:    now,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to deliver password reset otp")
		s.metrics.ObserveRequest(metrics.OutcomeNotifyFailed)
		return fmt.Errorf("%w: %v", ErrNotificationFailure, err)
	}

	logrus.WithField("user_id", user.ID).Info("password reset otp issued")
	s.metrics.ObserveRequest(metrics.OutcomeSuccess)
	return nil
}

// dispatch bounds the send by notifyTimeout regardless of whether the sender
// honors its context. The caller going away does not abort delivery of an OTP
// that is already committed.
func (s *passwordResetService) dispatch(ctx context.Context, n notifier.OtpNotification) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.sender.SendPasswordResetOtp(sendCtx, n)
	}()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		return sendCtx.Err()
	}
}

func (s *passwordResetService) VerifyOtp(ctx context.Context, req *types.VerifyOtpRequest) (*types.VerifyOtpResponse, error) {
	email := NormalizeEmail(req.Email)
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user, err := repository.NewUserRepository(tx).FindByEmailForUpdate(ctx, email)
	if err != nil {
		s.metrics.ObserveVerification(metrics.OutcomeError)
		return nil, err
	}
	if user == nil {
		s.metrics.ObserveVerification(metrics.OutcomeRejected)
		return nil, ErrInvalidEmailOrOtp
	}

	otpRepo := repository.NewPasswordResetOtpRepository(tx)
	otp, err := otpRepo.FindActiveForUpdate(ctx, user.ID, req.Otp, now)
	if err != nil {
		s.metrics.ObserveVerification(metrics.OutcomeError)
		return nil, err
	}
	if otp == nil {
		s.metrics.ObserveVerification(metrics.OutcomeRejected)
		return nil, ErrInvalidOrExpiredOtp
	}

	consumed, err := otpRepo.MarkUsed(ctx, otp.ID)
	if err != nil {
		s.metrics.ObserveVerification(metrics.OutcomeError)
		return nil, err
	}
	if consumed == 0 {
		s.metrics.ObserveVerification(metrics.OutcomeRejected)
		return nil, ErrInvalidOrExpiredOtp
	}

	if err = tx.Commit(); err != nil {
		s.metrics.ObserveVerification(metrics.OutcomeError)
		return nil, err
	}

	resetToken, err := s.tokens.IssueResetToken(user.ID, user.Email)
	if err != nil {
		s.metrics.ObserveVerification(metrics.OutcomeError)
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("password reset otp verified")
	s.metrics.ObserveVerification(metrics.OutcomeSuccess)
	return &types.VerifyOtpResponse{
		Message:    VerifyOtpSuccessMessage,
		ResetToken: resetToken,
	}, nil
}

// ResetPassword sets a new password for the account named by the reset token.
// The token stays valid until it expires.
func (s *passwordResetService) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		s.metrics.ObserveReset(metrics.OutcomeRejected)
		return ErrPasswordConfirmMismatch
	}

	userID, err := s.tokens.ValidateResetToken(req.ResetToken)
	if err != nil {
		s.metrics.ObserveReset(metrics.OutcomeRejected)
		return err
	}

	if err = s.policy.Validate(req.NewPassword); err != nil {
		s.metrics.ObserveReset(metrics.OutcomeRejected)
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		s.metrics.ObserveReset(metrics.OutcomeError)
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	userRepo := repository.NewUserRepository(tx)
	user, err := userRepo.FindByID(ctx, userID)
	if err != nil {
		s.metrics.ObserveReset(metrics.OutcomeError)
		return err
	}
	if user == nil {
		s.metrics.ObserveReset(metrics.OutcomeRejected)
		return ErrResetUserNotFound
	}

	if err = userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword), s.now()); err != nil {
		s.metrics.ObserveReset(metrics.OutcomeError)
		return err
	}

	if err = tx.Commit(); err != nil {
		s.metrics.ObserveReset(metrics.OutcomeError)
		return err
	}

	logrus.WithField("user_id", user.ID).Info("password reset completed")
	s.metrics.ObserveReset(metrics.OutcomeSuccess)
	return nil
}

// CleanupExpiredOtps deletes every code past its expiry, used or not, and
// returns how many rows went away.
func (s *passwordResetService) CleanupExpiredOtps(ctx context.Context) (int64, error) {
	deleted, err := repository.NewPasswordResetOtpRepository(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	s.metrics.AddSwept(deleted)
	if deleted > 0 {
		logrus.WithField("deleted", deleted).Info("expired password reset otps removed")
	}
	return deleted, nil
}
