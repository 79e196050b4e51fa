package controller

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type PasswordResetController struct {
	resetService service.PasswordResetService
}

func NewPasswordResetController(resetService service.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{resetService: resetService}
}

func (c *PasswordResetController) ForgotPassword(ctx echo.Context) error {
	return c.requestReset(ctx, types.ForgotPasswordMessage)
}

func (c *PasswordResetController) ResendOtp(ctx echo.Context) error {
	return c.requestReset(ctx, types.ResendOtpMessage)
}

// requestReset answers identically for known and unknown emails.
func (c *PasswordResetController) requestReset(ctx echo.Context, message string) error {
	req, err := types.NewForgotPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithError(err).Debug("Forgot password validation failed")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	}

	if err = c.resetService.RequestReset(ctx.Request().Context(), req); err != nil {
		if isInternal(err) {
			logrus.WithError(err).Error("Password reset request failed")
		} else {
			logrus.WithError(err).Warn("Password reset request failed")
		}
		return errorJSON(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: message})
}

func (c *PasswordResetController) VerifyOtp(ctx echo.Context) error {
	req, err := types.NewVerifyOtpRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind verify otp request")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithError(err).Debug("Verify otp validation failed")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	}

	result, err := c.resetService.VerifyOtp(ctx.Request().Context(), req)
	if err != nil {
		if isInternal(err) {
			logrus.WithError(err).Error("OTP verification failed")
		} else {
			logrus.WithError(err).Debug("OTP verification rejected")
		}
		return errorJSON(ctx, err)
	}

	return ctx.JSON(http.StatusOK, result)
}

func (c *PasswordResetController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithError(err).Debug("Reset password validation failed")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	}

	if err = c.resetService.ResetPassword(ctx.Request().Context(), req); err != nil {
		if isInternal(err) {
			logrus.WithError(err).Error("Password reset failed")
		} else {
			logrus.WithError(err).Debug("Password reset rejected")
		}
		return errorJSON(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: types.ResetPasswordMessage})
}

// CleanupExpiredOtps is mounted on the internal API-key protected group.
func (c *PasswordResetController) CleanupExpiredOtps(ctx echo.Context) error {
	deleted, err := c.resetService.CleanupExpiredOtps(ctx.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("OTP cleanup failed")
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: internalErrorMessage})
	}

	logrus.WithField("deleted", deleted).Info("Expired OTPs cleaned up")
	return ctx.JSON(http.StatusOK, types.CleanupResponse{Deleted: deleted})
}
