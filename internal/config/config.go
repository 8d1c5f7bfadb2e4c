package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Security  SecurityConfig
	Affiliate AffiliateConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port      string
	Env       string
	BaseURL   string
	StaticDir string
}

// IsProduction reports whether the server runs with production settings.
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// SecureCookies reports whether cookies must carry the Secure attribute.
func (c ServerConfig) SecureCookies() bool {
	return c.Env != "development"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// SecurityConfig holds secrets and token lifetimes
type SecurityConfig struct {
	PostbackSecret       string
	SessionEncryptionKey string
	SessionTTL           time.Duration
	RememberTTL          time.Duration
	ResetTokenSecret     string
	ResetTokenMaxAge     time.Duration
}

// AffiliateConfig holds broker and deposit-gate settings
type AffiliateConfig struct {
	BrokerURL  string
	MinDeposit decimal.Decimal
	ClickIDTTL time.Duration
}

// AdminConfig holds admin API basic-auth credentials
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// RateLimitConfig holds login/registration throttling settings
type RateLimitConfig struct {
	AuthMaxRequests int
	AuthWindow      time.Duration
}

// MailConfig holds the SMTP relay used for password reset mail
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	UseSSL   bool
	// ExposeResetURL echoes reset links in API responses. Development only.
	ExposeResetURL bool
}

// Enabled reports whether enough settings are present to send mail.
func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("SERVER_ENV", "development")
	return &Config{
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8080"),
			Env:       env,
			BaseURL:   strings.TrimRight(getEnv("BASE_URL", "https://qomex.top"), "/"),
			StaticDir: getEnv("STATIC_DIR", "static"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "qomex"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Security: SecurityConfig{
			PostbackSecret:       getEnv("POSTBACK_SECRET", ""),
			SessionEncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
			SessionTTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			RememberTTL:          getEnvAsDuration("SESSION_REMEMBER_TTL", 30*24*time.Hour),
			ResetTokenSecret:     getEnv("SECRET_KEY", "change-this-in-production"),
			ResetTokenMaxAge:     getEnvAsDuration("RESET_TOKEN_MAX_AGE", time.Hour),
		},
		Affiliate: AffiliateConfig{
			BrokerURL:  getEnv("BROKER_URL", "https://u3.shortink.io/smart/16ZjQA8RfjI79Z"),
			MinDeposit: getEnvAsDecimal("MIN_DEPOSIT", decimal.NewFromInt(50)),
			ClickIDTTL: getEnvAsDuration("CLICK_ID_TTL", 30*24*time.Hour),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USER", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		RateLimit: RateLimitConfig{
			AuthMaxRequests: getEnvAsInt("AUTH_RATE_LIMIT", 20),
			AuthWindow:      getEnvAsDuration("AUTH_RATE_WINDOW", time.Minute),
		},
		Mail: MailConfig{
			Host:           getEnv("SMTP_SERVER", ""),
			Port:           getEnvAsInt("SMTP_PORT", 587),
			Username:       getEnv("SMTP_USERNAME", ""),
			Password:       getEnv("SMTP_PASSWORD", ""),
			From:           getEnv("SMTP_FROM", getEnv("SMTP_USERNAME", "")),
			UseTLS:         getEnvAsBool("SMTP_USE_TLS", true),
			UseSSL:         getEnvAsBool("SMTP_USE_SSL", false),
			ExposeResetURL: getEnvAsBool("RESET_URL_IN_RESPONSE", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
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
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil && d.IsPositive() {
			return d
		}
	}
	return defaultValue
}
