package config

import (
	"os"
	"strconv"
	"time"

	"filevault/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database database.PostgresConfig
	Redis    database.RedisConfig
	JWT      JWTConfig
	Files    FilesConfig
	Queue    QueueConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
	MigrationsPath string
}

// JWTConfig holds the access/refresh token pair configuration
type JWTConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// FilesConfig holds object storage and upload policy configuration
type FilesConfig struct {
	S3Region          string
	S3Endpoint        string
	S3PublicEndpoint  string
	S3AccessKey       string
	S3SecretKey       string
	S3Bucket          string
	S3UseSSL          bool
	MaxUploadBytes    int64
	UploadURLTTL      time.Duration
	DownloadURLTTL    time.Duration
	NameEncryptionKey string // base64-encoded 32-byte key
	WebhookToken      string
}

// QueueConfig holds background job queue configuration
type QueueConfig struct {
	MaxAttempts int
	Concurrency int
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:4200"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "filevault"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "default-dev-secret"),
			AccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRATION", "15m"), 15*time.Minute),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "default-dev-refresh-secret"),
			RefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRATION", "168h"), 168*time.Hour),
		},
		Files: FilesConfig{
			S3Region:          getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:        getEnv("S3_ENDPOINT", ""),
			S3PublicEndpoint:  getEnv("S3_PUBLIC_ENDPOINT", getEnv("S3_ENDPOINT", "")),
			S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
			S3Bucket:          getEnv("FILES_BUCKET_NAME", ""),
			S3UseSSL:          getEnv("S3_USE_SSL", "true") == "true",
			MaxUploadBytes:    parseInt64(getEnv("MAX_UPLOAD_BYTES", "52428800"), 52428800),
			UploadURLTTL:      parseDuration(getEnv("FILES_UPLOAD_URL_TTL", "15m"), 15*time.Minute),
			DownloadURLTTL:    parseDuration(getEnv("FILES_DOWNLOAD_URL_TTL", "60s"), 60*time.Second),
			NameEncryptionKey: getEnv("FILE_NAME_ENCRYPTION_KEY", ""),
			WebhookToken:      getEnv("STORAGE_WEBHOOK_TOKEN", ""),
		},
		Queue: QueueConfig{
			MaxAttempts: int(parseInt64(getEnv("QUEUE_MAX_ATTEMPTS", "5"), 5)),
			Concurrency: int(parseInt64(getEnv("QUEUE_CONCURRENCY", "2"), 2)),
		},
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

// parseInt64 parses an integer string or returns a default value
func parseInt64(value string, defaultValue int64) int64 {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return defaultValue
}
