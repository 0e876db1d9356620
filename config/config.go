package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "your-super-secret-jwt-key-change-this-in-production"

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Cookie     CookieConfig
	Mail       MailConfig
	Sheets     SheetsConfig
	Cloudinary CloudinaryConfig
	Redis      RedisConfig
	Pricing    PricingConfig
	Outbox     OutboxConfig
	Launch     LaunchConfig
	Admin      AdminConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver      string // postgres or sqlite
	DSN         string
	LogLevel    string
	SeedCatalog bool
}

type JWTConfig struct {
	Secret           string
	ExpiryHours      int
	RefreshTokenDays int
	Issuer           string
}

type CookieConfig struct {
	Domain string
	Secure bool
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type SheetsConfig struct {
	WebhookURL string
	Secret     string
	Timeout    time.Duration
}

type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
}

type RedisConfig struct {
	URL       string
	CouponTTL time.Duration
}

type PricingConfig struct {
	ExcludedTotals []float64
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	Retention    time.Duration // sent events older than this are purged
}

type LaunchConfig struct {
	At time.Time // zero means bookings are already open
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("DB_DRIVER", "postgres"),
			DSN:         os.Getenv("DB_URL"),
			LogLevel:    getEnv("DB_LOG_LEVEL", "warn"),
			SeedCatalog: getEnvAsBool("DB_SEED_CATALOG", false),
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", defaultJWTSecret),
			ExpiryHours:      getEnvAsInt("JWT_EXPIRY_HOURS", 24),
			RefreshTokenDays: getEnvAsInt("REFRESH_TOKEN_DAYS", 30),
			Issuer:           getEnv("JWT_ISSUER", "puja-booking-server"),
		},
		Cookie: CookieConfig{
			Domain: os.Getenv("COOKIE_DOMAIN"),
			Secure: getEnvAsBool("COOKIE_SECURE", false),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "bookings@localhost"),
			Timeout:  getEnvAsDuration("MAIL_SEND_TIMEOUT", 10*time.Second),
		},
		Sheets: SheetsConfig{
			WebhookURL: os.Getenv("SHEETS_WEBHOOK_URL"),
			Secret:     os.Getenv("SHEETS_WEBHOOK_SECRET"),
			Timeout:    getEnvAsDuration("SHEETS_TIMEOUT", 10*time.Second),
		},
		Cloudinary: CloudinaryConfig{
			URL:       os.Getenv("CLOUDINARY_URL"),
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			CouponTTL: getEnvAsDuration("COUPON_CACHE_TTL", time.Minute),
		},
		Outbox: OutboxConfig{
			PollInterval: getEnvAsDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 20),
			MaxAttempts:  getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 5),
			BaseBackoff:  getEnvAsDuration("OUTBOX_BASE_BACKOFF", 30*time.Second),
			MaxBackoff:   getEnvAsDuration("OUTBOX_MAX_BACKOFF", time.Hour),
			Retention:    getEnvAsDuration("OUTBOX_RETENTION", 30*24*time.Hour),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
	}

	excluded, err := parseFloatList(getEnv("COUPON_EXCLUDED_TOTALS", "99"))
	if err != nil {
		return nil, fmt.Errorf("COUPON_EXCLUDED_TOTALS: %w", err)
	}
	cfg.Pricing.ExcludedTotals = excluded

	if raw := strings.TrimSpace(os.Getenv("LAUNCH_AT")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("LAUNCH_AT must be RFC3339: %w", err)
		}
		cfg.Launch.At = at
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_URL is required for the postgres driver")
		}
	case "sqlite":
		if c.Database.DSN == "" {
			c.Database.DSN = "puja-booking.db"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Server.GinMode == "release" && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in release mode")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	if c.Outbox.MaxAttempts < 1 {
		c.Outbox.MaxAttempts = 1
	}
	if c.Outbox.BatchSize < 1 {
		c.Outbox.BatchSize = 20
	}
	return nil
}

// IsRelease reports whether gin runs in release mode
func (c *Config) IsRelease() bool {
	return c.Server.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFloatList(value string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q", part)
		}
		out = append(out, f)
	}
	return out, nil
}
