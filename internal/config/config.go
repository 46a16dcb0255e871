// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Media storage drivers
const (
	MediaDriverLocal = "local"
	MediaDriverS3    = "s3"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	Session  SessionConfig
	Media    MediaConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port    int
	BaseURL string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// SessionConfig holds session cookie and expiry settings
type SessionConfig struct {
	CookieName string
	Expiry     time.Duration
}

// MediaConfig holds media storage settings
type MediaConfig struct {
	Driver   string
	BasePath string
	BaseURL  string
	S3       S3Config
}

// S3Config holds S3-compatible media host settings
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	baseURL := os.Getenv("SERVER_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Server.BaseURL = baseURL

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// Session configuration
	cookieName := os.Getenv("SESSION_COOKIE_NAME")
	if cookieName == "" {
		cookieName = "yamacamp_session"
	}
	cfg.Session.CookieName = cookieName

	// Session expiry (default: 7 days, sliding window)
	sessionExpiryStr := os.Getenv("SESSION_EXPIRY")
	if sessionExpiryStr == "" {
		sessionExpiryStr = "168h" // 7 days
	}
	sessionExpiry, err := time.ParseDuration(sessionExpiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_EXPIRY: %w", err)
	}
	cfg.Session.Expiry = sessionExpiry

	// Media storage configuration
	mediaDriver := os.Getenv("MEDIA_DRIVER")
	if mediaDriver == "" {
		mediaDriver = MediaDriverLocal
	}
	if mediaDriver != MediaDriverLocal && mediaDriver != MediaDriverS3 {
		return nil, fmt.Errorf("invalid MEDIA_DRIVER: %s", mediaDriver)
	}
	cfg.Media.Driver = mediaDriver

	mediaBasePath := os.Getenv("MEDIA_BASE_PATH")
	if mediaBasePath == "" {
		mediaBasePath = "uploads"
	}
	cfg.Media.BasePath = mediaBasePath

	mediaBaseURL := os.Getenv("MEDIA_BASE_URL")
	if mediaBaseURL == "" {
		mediaBaseURL = cfg.Server.BaseURL
	}
	cfg.Media.BaseURL = mediaBaseURL

	// S3 configuration (required only when MEDIA_DRIVER=s3)
	if mediaDriver == MediaDriverS3 {
		cfg.Media.S3.Region = os.Getenv("S3_REGION")
		if cfg.Media.S3.Region == "" {
			return nil, fmt.Errorf("S3_REGION is required")
		}

		cfg.Media.S3.Bucket = os.Getenv("S3_BUCKET")
		if cfg.Media.S3.Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required")
		}

		cfg.Media.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
		if cfg.Media.S3.AccessKey == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY is required")
		}

		cfg.Media.S3.SecretKey = os.Getenv("S3_SECRET_KEY")
		if cfg.Media.S3.SecretKey == "" {
			return nil, fmt.Errorf("S3_SECRET_KEY is required")
		}

		cfg.Media.S3.Endpoint = os.Getenv("S3_ENDPOINT") // optional, for MinIO-compatible hosts
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
