package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Storage StorageConfig
	Payout  PayoutConfig
	CORS    CORSConfig
}

type ServerConfig struct {
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  int // hours
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Secure        bool
	PublicBaseURL string
	MaxUploadMB   int64
}

// PayoutConfig holds the reward-tier policy. The rate is flat per unit:
// once the batch total reaches TierThreshold, PremiumRate applies to the
// whole batch, otherwise StandardRate does.
type PayoutConfig struct {
	TierThreshold int64
	StandardRate  int64
	PremiumRate   int64
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, _ := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	tierThreshold, _ := strconv.ParseInt(getEnv("PAYOUT_TIER_THRESHOLD", "11"), 10, 64)
	standardRate, _ := strconv.ParseInt(getEnv("PAYOUT_STANDARD_RATE", "200"), 10, 64)
	premiumRate, _ := strconv.ParseInt(getEnv("PAYOUT_PREMIUM_RATE", "400"), 10, 64)
	maxUploadMB, _ := strconv.ParseInt(getEnv("STORAGE_MAX_UPLOAD_MB", "5"), 10, 64)
	storageSecure, _ := strconv.ParseBool(getEnv("STORAGE_SECURE", "false"))

	return Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "agenthub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-only-secret"),
			TokenTTL:  tokenTTL,
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			Bucket:        getEnv("STORAGE_BUCKET", "profile-pictures"),
			Secure:        storageSecure,
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:9000"),
			MaxUploadMB:   maxUploadMB,
		},
		Payout: PayoutConfig{
			TierThreshold: tierThreshold,
			StandardRate:  standardRate,
			PremiumRate:   premiumRate,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
