package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds session token validation configuration
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// SecurityConfig holds request-trust configuration.
// TrustedProxyHeader names the marker header only the deployment's own edge
// infrastructure can set; forwarded-address headers are trusted only when it is present.
type SecurityConfig struct {
	TrustedProxyHeader string
}

// RateLimitConfig holds counter-store and per-bucket rate limit configuration.
// Rate limiting is enabled only when both StoreURL and StoreToken are set.
type RateLimitConfig struct {
	StoreURL     string
	StoreToken   string
	CheckTimeout time.Duration
	Buckets      BucketConfig
}

// BucketLimit holds the window and threshold for one limiter bucket
type BucketLimit struct {
	Requests int
	Window   time.Duration
}

// BucketConfig holds the per-bucket sliding-window limits
type BucketConfig struct {
	Auth      BucketLimit
	Admin     BucketLimit
	Webhook   BucketLimit
	Public    BucketLimit
	Sensitive BucketLimit
	API       BucketLimit
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// Enabled reports whether rate limiting is configured. Both the store URL and
// the access credential are required; anything less means the deployment has no
// counter store and the limiter must be a no-op.
func (c *RateLimitConfig) Enabled() bool {
	return c.StoreURL != "" && c.StoreToken != ""
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "vetnova"),
			TokenTTL:  getEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Security: SecurityConfig{
			TrustedProxyHeader: getEnv("TRUSTED_PROXY_HEADER", "x-edge-verified"),
		},
		RateLimit: RateLimitConfig{
			StoreURL:     getEnv("RATE_LIMIT_STORE_URL", ""),
			StoreToken:   getEnv("RATE_LIMIT_STORE_TOKEN", ""),
			CheckTimeout: getEnvAsDuration("RATE_LIMIT_CHECK_TIMEOUT", 2*time.Second),
			Buckets: BucketConfig{
				Auth:      BucketLimit{Requests: getEnvAsInt("RATE_LIMIT_AUTH", 5), Window: getEnvAsDuration("RATE_LIMIT_AUTH_WINDOW", time.Minute)},
				Admin:     BucketLimit{Requests: getEnvAsInt("RATE_LIMIT_ADMIN", 30), Window: getEnvAsDuration("RATE_LIMIT_ADMIN_WINDOW", time.Minute)},
				Webhook:   BucketLimit{Requests: getEnvAsInt("RATE_LIMIT_WEBHOOK", 120), Window: getEnvAsDuration("RATE_LIMIT_WEBHOOK_WINDOW", time.Minute)},
				Public:    BucketLimit{Requests: getEnvAsInt("RATE_LIMIT_PUBLIC", 60), Window: getEnvAsDuration("RATE_LIMIT_PUBLIC_WINDOW", time.Minute)},
				Sensitive: BucketLimit{Requests: getEnvAsInt("RATE_LIMIT_SENSITIVE", 20), Window: getEnvAsDuration("RATE_LIMIT_SENSITIVE_WINDOW", time.Minute)},
				API:       BucketLimit{Requests: getEnvAsInt("RATE_LIMIT_API", 100), Window: getEnvAsDuration("RATE_LIMIT_API_WINDOW", time.Minute)},
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT secret is required in production")
		}
		// A half-configured counter store is a misconfiguration, not a reason
		// to silently run without limits.
		if (c.RateLimit.StoreURL == "") != (c.RateLimit.StoreToken == "") {
			return fmt.Errorf("rate limit store requires both RATE_LIMIT_STORE_URL and RATE_LIMIT_STORE_TOKEN")
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "vetnova"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "clinic"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
