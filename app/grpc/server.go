package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/app/types"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "pos.auth.v1.PasswordReset"

type sessionTokenValidator interface {
	ValidateSessionToken(tokenString string) (*service.Claims, error)
}

// PasswordResetServer exposes the reset flow to internal callers. Messages are
// google.protobuf.Struct with the same camelCase keys as the HTTP API.
type PasswordResetServer struct {
	resetService service.PasswordResetService
	tokens       sessionTokenValidator
}

func NewPasswordResetServer(resetService service.PasswordResetService, tokens sessionTokenValidator) *PasswordResetServer {
	return &PasswordResetServer{resetService: resetService, tokens: tokens}
}

func (s *PasswordResetServer) RequestReset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.ForgotPasswordRequest{Email: stringField(in, "email")}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.resetService.RequestReset(ctx, req); err != nil {
		logrus.WithError(err).Warn("Password reset request failed (grpc)")
		return nil, grpcError(err)
	}

	return structpb.NewStruct(map[string]any{"message": types.ForgotPasswordMessage})
}

func (s *PasswordResetServer) VerifyOtp(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.VerifyOtpRequest{Email: stringField(in, "email"), Otp: stringField(in, "otp")}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.resetService.VerifyOtp(ctx, req)
	if err != nil {
		logrus.WithError(err).Debug("OTP verification rejected (grpc)")
		return nil, grpcError(err)
	}

	return structpb.NewStruct(map[string]any{
		"message":    res.Message,
		"resetToken": res.ResetToken,
	})
}

func (s *PasswordResetServer) ResetPassword(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := &types.ResetPasswordRequest{
		ResetToken:      stringField(in, "resetToken"),
		NewPassword:     stringField(in, "newPassword"),
		ConfirmPassword: stringField(in, "confirmPassword"),
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.resetService.ResetPassword(ctx, req); err != nil {
		logrus.WithError(err).Debug("Password reset rejected (grpc)")
		return nil, grpcError(err)
	}

	return structpb.NewStruct(map[string]any{"message": types.ResetPasswordMessage})
}

// ValidateToken reports validity in the body; an invalid token is not an RPC error.
func (s *PasswordResetServer) ValidateToken(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(in, "accessToken")
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "accessToken is required")
	}

	claims, err := s.tokens.ValidateSessionToken(token)
	if err != nil {
		return structpb.NewStruct(map[string]any{"valid": false})
	}

	return structpb.NewStruct(map[string]any{
		"valid":  true,
		"userId": float64(claims.UserID),
		"email":  claims.Email,
		"role":   string(claims.Role),
	})
}

func (s *PasswordResetServer) CleanupExpiredOtps(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	deleted, err := s.resetService.CleanupExpiredOtps(ctx)
	if err != nil {
		logrus.WithError(err).Error("OTP cleanup failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return structpb.NewStruct(map[string]any{"deleted": float64(deleted)})
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotificationFailure):
		return status.Error(codes.Unavailable, "failed to send OTP, please try again")
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidCredential):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		logrus.WithError(err).Error("Internal error (grpc)")
		return status.Error(codes.Internal, "internal server error")
	}
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

type passwordResetHandler interface {
	RequestReset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyOtp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CleanupExpiredOtps(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(passwordResetHandler, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodHandler(name string, call unaryMethod) gogrpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		h := srv.(passwordResetHandler)
		if interceptor == nil {
			return call(h, ctx, in)
		}
		info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(h, ctx, req.(*structpb.Struct))
		})
	}
}

var PasswordResetServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*passwordResetHandler)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "RequestReset", Handler: methodHandler("RequestReset", passwordResetHandler.RequestReset)},
		{MethodName: "VerifyOtp", Handler: methodHandler("VerifyOtp", passwordResetHandler.VerifyOtp)},
		{MethodName: "ResetPassword", Handler: methodHandler("ResetPassword", passwordResetHandler.ResetPassword)},
		{MethodName: "ValidateToken", Handler: methodHandler("ValidateToken", passwordResetHandler.ValidateToken)},
		{MethodName: "CleanupExpiredOtps", Handler: methodHandler("CleanupExpiredOtps", passwordResetHandler.CleanupExpiredOtps)},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "pos/auth/v1/password_reset.proto",
}

func RegisterPasswordResetServer(s gogrpc.ServiceRegistrar, srv *PasswordResetServer) {
	s.RegisterService(&PasswordResetServiceDesc, srv)
}
