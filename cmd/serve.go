package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/controller"
	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"
	authgrpc "github.com/vibast-solutions/ms-go-pos-auth/app/grpc"
	"github.com/vibast-solutions/ms-go-pos-auth/app/lock"
	"github.com/vibast-solutions/ms-go-pos-auth/app/metrics"
	"github.com/vibast-solutions/ms-go-pos-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-pos-auth/app/notifier"
	"github.com/vibast-solutions/ms-go-pos-auth/app/repository"
	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start both HTTP (Echo) and gRPC servers for the POS authentication service, plus the expired OTP sweeper.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type services struct {
	tokens    service.TokenService
	userAuth  service.UserAuthService
	reset     service.PasswordResetService
	sweeper   *service.OtpSweeper
	apiKey    string
	registry  *prometheus.Registry
	closeFunc []func()
}

func (s *services) close() {
	for i := len(s.closeFunc) - 1; i >= 0; i-- {
		s.closeFunc[i]()
	}
}

func runServe(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := loadRuntime(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start")
	}
	defer db.Close()

	svc, err := buildServices(ctx, cfg, db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build services")
	}
	defer svc.close()

	go svc.sweeper.Run(ctx)

	grpcServer, err := startGRPCServer(cfg, svc)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC server")
	}

	e := newHTTPServer(svc)
	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	go func() {
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()
}

func buildServices(ctx context.Context, cfg *config.Config, db *sql.DB) (*services, error) {
	svc := &services{apiKey: cfg.Internal.APIKey, registry: prometheus.NewRegistry()}
	svc.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	resetMetrics, err := metrics.NewReset(svc.registry)
	if err != nil {
		return nil, err
	}

	tokens, err := service.NewTokenService(cfg.JWT)
	if err != nil {
		return nil, err
	}
	svc.tokens = tokens

	sender, err := newSender(cfg, svc)
	if err != nil {
		svc.close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	svc.userAuth = service.NewUserAuthService(db, userRepo, tokens, cfg, identityVerifiers(cfg)...)
	svc.reset = service.NewPasswordResetService(db, tokens, sender, cfg, service.WithResetMetrics(resetMetrics))

	locker, err := newLocker(ctx, cfg, svc)
	if err != nil {
		svc.close()
		return nil, err
	}
	svc.sweeper = service.NewOtpSweeper(svc.reset, locker, cfg.OTP.CleanupInterval)

	return svc, nil
}

func newSender(cfg *config.Config, svc *services) (notifier.Sender, error) {
	switch cfg.Notification.Driver {
	case config.NotificationDriverSMTP:
		renderer, err := notifier.NewRenderer(cfg.App.Name)
		if err != nil {
			return nil, err
		}
		logrus.WithField("host", cfg.Notification.SMTP.Host).Info("Using SMTP notification driver")
		return notifier.NewSMTPSender(cfg.Notification.SMTP, cfg.Notification.From, renderer), nil
	case config.NotificationDriverNATS:
		nc, js, err := notifier.ConnectJetStream(cfg.Notification.NATS.URL, nats.Name(cfg.App.Name+"-pos-auth"))
		if err != nil {
			return nil, err
		}
		svc.closeFunc = append(svc.closeFunc, func() { notifier.CloseJetStream(nc) })
		logrus.WithField("subject", cfg.Notification.NATS.Subject).Info("Using NATS notification driver")
		return notifier.NewNATSSender(js, cfg.Notification.NATS.Subject), nil
	default:
		logrus.Warn("Using log notification driver; OTP codes are written to the log")
		return notifier.NewLogSender(), nil
	}
}

func identityVerifiers(cfg *config.Config) []service.UserAuthServiceOption {
	var opts []service.UserAuthServiceOption
	if cfg.OAuth.GoogleClientID != "" {
		opts = append(opts, service.WithIdentityVerifier(entity.ProviderGoogle, service.NewGoogleVerifier(cfg.OAuth.GoogleClientID, nil)))
	}
	if cfg.OAuth.FacebookGraphURL != "" {
		client := &http.Client{Timeout: 10 * time.Second}
		opts = append(opts, service.WithIdentityVerifier(entity.ProviderFacebook, service.NewFacebookVerifier(cfg.OAuth.FacebookGraphURL, client)))
	}
	return opts
}

// newLocker shares the sweep lease through Redis when configured so only one
// replica sweeps per interval.
func newLocker(ctx context.Context, cfg *config.Config, svc *services) (lock.Locker, error) {
	if cfg.Redis.Addr == "" {
		return lock.NewLocalLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	svc.closeFunc = append(svc.closeFunc, func() { _ = client.Close() })

	logrus.WithField("addr", cfg.Redis.Addr).Info("Using Redis sweep lock")
	return lock.NewRedisLocker(client), nil
}

func newHTTPServer(svc *services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	registerRoutes(e, svc)
	return e
}

func registerRoutes(e *echo.Echo, svc *services) {
	userController := controller.NewUserAuthController(svc.userAuth)
	resetController := controller.NewPasswordResetController(svc.reset)
	authMiddleware := middleware.NewAuthMiddleware(svc.tokens)
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(svc.apiKey)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(svc.registry, promhttp.HandlerOpts{})))

	auth := e.Group("/api/auth")
	auth.POST("/register", userController.Register)
	auth.POST("/login", userController.Login)
	auth.POST("/oauth2/:provider", userController.OAuthLogin)
	auth.POST("/forgot-password", resetController.ForgotPassword)
	auth.POST("/resend-otp", resetController.ResendOtp)
	auth.POST("/verify-otp", resetController.VerifyOtp)
	auth.POST("/reset-password", resetController.ResetPassword)

	users := e.Group("/api/users")
	users.Use(authMiddleware.RequireAuth)
	users.GET("/me", userController.Me)

	internal := e.Group("/internal")
	internal.Use(apiKeyMiddleware.RequireAPIKey)
	internal.POST("/otps/cleanup", resetController.CleanupExpiredOtps)
}

func startGRPCServer(cfg *config.Config, svc *services) (*grpc.Server, error) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, err
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(authgrpc.APIKeyUnaryInterceptor(svc.apiKey)))
	authgrpc.RegisterPasswordResetServer(grpcServer, authgrpc.NewPasswordResetServer(svc.reset, svc.tokens))

	go func() {
		logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Error("gRPC server stopped")
		}
	}()
	return grpcServer, nil
}
