// Package config loads server configuration from a .env file and the
// environment. Environment variables win over .env values; a missing .env is
// fine in production where everything comes from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	DBPath           string
	JWTSecret        string
	TelegramBotToken string
	AllowedOrigins   []string
	CurrentSeason    int
	BackupDir        string
	BackupInterval   time.Duration
	BackupKeep       int
}

// Load reads .env (if present) and assembles the configuration.
// JWT_SECRET and TELEGRAM_BOT_TOKEN are required; everything else has a
// development-friendly default.
func Load() (*Config, error) {
	// Ignore the error: no .env file simply means env-only configuration.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvInt("PORT", 3001),
		DBPath:           getEnv("DB_PATH", "data/market.db"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		CurrentSeason:    getEnvInt("CURRENT_SEASON", 2),
		BackupDir:        getEnv("BACKUP_DIR", "backups"),
		BackupInterval:   getEnvDuration("BACKUP_INTERVAL", 6*time.Hour),
		BackupKeep:       getEnvInt("BACKUP_KEEP", 5),
	}

	origins := getEnv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	if cfg.TelegramBotToken == "" {
		return nil, errors.New("config: TELEGRAM_BOT_TOKEN is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
