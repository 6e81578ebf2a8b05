package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the funnel editor API
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Playback PlaybackConfig
	Webhook  WebhookConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI         string
	Database    string
	PingTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds the editor account and token signing key
type AuthConfig struct {
	Username  string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

// CORSConfig holds allowed origins, methods and headers
type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// PlaybackConfig holds player session settings
type PlaybackConfig struct {
	SessionTTL time.Duration
	FunnelTTL  time.Duration
}

// WebhookConfig holds lead webhook delivery settings
type WebhookConfig struct {
	Timeout time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Mongo: MongoConfig{
			URI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:    getEnv("MONGO_DATABASE", "funneldb"),
			PingTimeout: getEnvAsDuration("MONGO_PING_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimPrefix(getEnv("REDIS_URI", "localhost:6379"), "redis://"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Username:  getEnv("EDITOR_USERNAME", "admin"),
			Password:  getEnv("EDITOR_PASSWORD", "password123"),
			JWTSecret: getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
			TokenTTL:  getEnvAsDuration("TOKEN_TTL", 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization"),
		},
		Playback: PlaybackConfig{
			SessionTTL: getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			FunnelTTL:  getEnvAsDuration("FUNNEL_CACHE_TTL", 10*time.Minute),
		},
		Webhook: WebhookConfig{
			Timeout: getEnvAsDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo URI is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Playback.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
