package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

const (
	NotificationDriverSMTP = "smtp"
	NotificationDriverNATS = "nats"
	NotificationDriverLog  = "log"
)

// Config is loaded once at process start and treated as read-only afterwards.
type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	GRPC         GRPCConfig
	MySQL        MySQLConfig
	Redis        RedisConfig
	JWT          JWTConfig
	OTP          OTPConfig
	Password     PasswordConfig
	Notification NotificationConfig
	OAuth        OAuthConfig
	Internal     InternalConfig
}

type AppConfig struct {
	Name      string
	LogLevel  string
	LogFormat string
}

type HTTPConfig struct {
	Host string
	Port string
}

type GRPCConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
}

type OTPConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type PasswordConfig struct {
	Policy     PasswordPolicy
	BcryptCost int
}

type NotificationConfig struct {
	Driver  string
	Timeout time.Duration
	From    string
	SMTP    SMTPConfig
	NATS    NATSConfig
}

type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	ImplicitTLS bool
}

type NATSConfig struct {
	URL     string
	Subject string
}

type OAuthConfig struct {
	GoogleClientID   string
	FacebookGraphURL string
}

type InternalConfig struct {
	APIKey string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	cfg := &Config{
		App: AppConfig{
			Name:      getEnv("APP_NAME", "DreamsPOS"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
		HTTP: HTTPConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: GRPCConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN: mysqlDSN,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:         jwtSecret,
			Issuer:         getEnv("JWT_ISSUER", "pos-auth"),
			AccessTokenTTL: getDurationEnv("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
			ResetTokenTTL:  getDurationEnv("RESET_TOKEN_TTL", 15*time.Minute),
		},
		OTP: OTPConfig{
			TTL:             getDurationEnv("OTP_TTL", 5*time.Minute),
			CleanupInterval: getDurationEnv("OTP_CLEANUP_INTERVAL", time.Hour),
		},
		Password: PasswordConfig{
			Policy:     loadPasswordPolicy(),
			BcryptCost: getIntEnv("BCRYPT_COST", 10),
		},
		Notification: NotificationConfig{
			Driver:  strings.ToLower(getEnv("NOTIFICATION_DRIVER", NotificationDriverLog)),
			Timeout: time.Duration(getIntEnv("NOTIFICATION_TIMEOUT_SECONDS", 10)) * time.Second,
			From:    getEnv("MAIL_FROM", "no-reply@dreamspos.local"),
			SMTP: SMTPConfig{
				Host:        os.Getenv("SMTP_HOST"),
				Port:        getEnv("SMTP_PORT", "587"),
				Username:    os.Getenv("SMTP_USERNAME"),
				Password:    os.Getenv("SMTP_PASSWORD"),
				ImplicitTLS: getBoolEnv("SMTP_IMPLICIT_TLS", false),
			},
			NATS: NATSConfig{
				URL:     getEnv("NATS_URL", "nats://127.0.0.1:4222"),
				Subject: getEnv("NATS_OTP_SUBJECT", "notifications.password_reset_otp"),
			},
		},
		OAuth: OAuthConfig{
			GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
			FacebookGraphURL: getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"),
		},
		Internal: InternalConfig{
			APIKey: os.Getenv("INTERNAL_API_KEY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) DSN() string {
	return c.MySQL.DSN
}

func (c *Config) validate() error {
	switch c.Notification.Driver {
	case NotificationDriverLog, NotificationDriverNATS:
	case NotificationDriverSMTP:
		if c.Notification.SMTP.Host == "" {
			return errors.New("SMTP_HOST environment variable is required for the smtp notification driver")
		}
	default:
		return fmt.Errorf("unsupported NOTIFICATION_DRIVER %q", c.Notification.Driver)
	}
	if c.Notification.Timeout <= 0 {
		return errors.New("NOTIFICATION_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP_TTL must be greater than 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 6),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", false),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", false),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", false),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", false),
	}
}
