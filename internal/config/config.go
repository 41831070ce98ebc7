package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Bridge   BridgeConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type BridgeConfig struct {
	// AuthOrigin is the identity-owning origin the popup runs on.
	AuthOrigin string
	// TokenTTLMinutes bounds the short-lived session token the bridge mints.
	TokenTTLMinutes int
	JWTSecret       string
}

type EngineConfig struct {
	// GeneratorURL is the opaque external image-generation service.
	GeneratorURL       string
	PollIntervalMillis int
	PollBudget         int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "FitRoom"),
		},
		Bridge: BridgeConfig{
			AuthOrigin:      getEnv("BRIDGE_AUTH_ORIGIN", "http://localhost:3000"),
			TokenTTLMinutes: getEnvAsInt("BRIDGE_TOKEN_TTL_MINUTES", 5),
			JWTSecret:       getEnv("JWT_SECRET", ""),
		},
		Engine: EngineConfig{
			GeneratorURL:       getEnv("GENERATOR_URL", "http://localhost:9800"),
			PollIntervalMillis: getEnvAsInt("POLL_INTERVAL_MILLIS", 1000),
			PollBudget:         getEnvAsInt("POLL_BUDGET", 30),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
