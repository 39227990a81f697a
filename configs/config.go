package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	APIBaseURL       string
	APISessionToken  string
	APITimeout       time.Duration
	BusinessTimezone string
	ConsoleAddr      string
	FrontendURL      string
	RedisURI         string
	R2               R2
	SecretKey        string
	LogLevel         string
	LogFormat        string
}

func LoadConfig() *Config {
	return &Config{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:5000"),
		APISessionToken:  getEnv("API_SESSION_TOKEN", ""),
		APITimeout:       getDuration("API_TIMEOUT", 30*time.Second),
		BusinessTimezone: getEnv("BUSINESS_TIMEZONE", "Australia/Brisbane"),
		ConsoleAddr:      getEnv("CONSOLE_ADDR", ":3000"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		RedisURI:         getEnv("REDIS_URI", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("MEDIA_PUBLIC_URL", ""),
		},
		SecretKey: getEnv("SECRET_KEY", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go duration strings ("45s") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
