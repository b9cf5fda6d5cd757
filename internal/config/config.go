package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Upstream collaborators
	RelayURL      string `env:"RELAY_URL"`
	ProfileAPIURL string `env:"PROFILE_API_URL"`

	// Leaderboard XP ranges per event
	ChatXPMin    int `env:"CHAT_XP_MIN" default:"3"`
	ChatXPMax    int `env:"CHAT_XP_MAX" default:"8"`
	PerCoinXPMin int `env:"PER_COIN_XP_MIN" default:"1"`
	PerCoinXPMax int `env:"PER_COIN_XP_MAX" default:"3"`

	// TTLs and timers
	GiveawayResultTTL time.Duration `env:"GIVEAWAY_RESULT_TTL" default:"24h"`
	AvatarTTL         time.Duration `env:"AVATAR_TTL" default:"4h"`
	ProfileCacheTTL   time.Duration `env:"PROFILE_CACHE_TTL" default:"1h"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" default:"2s"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT" default:"15s"`

	// HTTP rate limiting
	RatePerSecond float64 `env:"RATE_PER_SECOND" default:"10"`
	RateBurst     int     `env:"RATE_BURST" default:"20"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":    cfg.DatabaseURL,
		"REDIS_URL":       cfg.RedisURL,
		"RELAY_URL":       cfg.RelayURL,
		"PROFILE_API_URL": cfg.ProfileAPIURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.ChatXPMin > cfg.ChatXPMax {
		return fmt.Errorf("CHAT_XP_MIN must not exceed CHAT_XP_MAX")
	}
	if cfg.PerCoinXPMin > cfg.PerCoinXPMax {
		return fmt.Errorf("PER_COIN_XP_MIN must not exceed PER_COIN_XP_MAX")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	return nil
}
