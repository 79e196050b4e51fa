package controller

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserAuthController struct {
	userAuthService service.UserAuthService
}

func NewUserAuthController(userAuthService service.UserAuthService) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService}
}

func (c *UserAuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	result, err := c.userAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		if isInternal(err) {
			logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		} else {
			logrus.WithError(err).WithField("email", req.Email).Warn("Register rejected")
		}
		return errorJSON(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, result)
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	}

	result, err := c.userAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		if isInternal(err) {
			logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		} else {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
		}
		return errorJSON(ctx, err)
	}

	logrus.WithField("user_id", result.User.ID).Info("Login successful")
	return ctx.JSON(http.StatusOK, result)
}

func (c *UserAuthController) OAuthLogin(ctx echo.Context) error {
	req, err := types.NewOAuthLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind oauth2 login request")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("provider", req.Provider).Debug("OAuth2 login validation failed")
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	}

	result, err := c.userAuthService.OAuthLogin(ctx.Request().Context(), req)
	if err != nil {
		if isInternal(err) {
			logrus.WithError(err).WithField("provider", req.Provider).Error("OAuth2 login failed")
		} else {
			logrus.WithError(err).WithField("provider", req.Provider).Warn("OAuth2 login rejected")
		}
		return errorJSON(ctx, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  result.User.ID,
		"provider": req.Provider,
	}).Info("OAuth2 login successful")
	return ctx.JSON(http.StatusOK, result)
}

func (c *UserAuthController) Me(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		logrus.Warn("Me failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized"})
	}

	user, err := c.userAuthService.CurrentUser(ctx.Request().Context(), userID)
	if err != nil {
		if isInternal(err) {
			logrus.WithError(err).WithField("user_id", userID).Error("Me failed")
		}
		return errorJSON(ctx, err)
	}

	return ctx.JSON(http.StatusOK, user)
}
