package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Guide backend
	GuideAPIURL    string        `env:"GUIDE_API_URL,required,notEmpty"`
	GuideAPIToken  string        `env:"GUIDE_API_TOKEN"`
	GuideChatPath  string        `env:"GUIDE_CHAT_PATH" envDefault:"/guide/chat"`
	GuideTilesPath string        `env:"GUIDE_TILES_PATH" envDefault:"/guide/tiles"`
	GuidePacing    time.Duration `env:"GUIDE_PACING" envDefault:"30ms"`
	GuideIdleTTL   time.Duration `env:"GUIDE_IDLE_TTL" envDefault:"24h"`
	TileCacheTTL   time.Duration `env:"TILE_CACHE_TTL" envDefault:"1h"`

	// Live replies
	EditInterval time.Duration `env:"TG_EDIT_INTERVAL" envDefault:"1.2s"`

	// Payment: Telegram Stars
	StarsEnabled bool `env:"STARS_ENABLED" envDefault:"true"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Rate limits, requests per minute
	RateLimitRegular int `env:"RATE_LIMIT_REGULAR" envDefault:"6"`
	RateLimitPremium int `env:"RATE_LIMIT_PREMIUM" envDefault:"11"`

	// Server
	Port             int  `env:"PORT" envDefault:"3000"`
	StatusAPIEnabled bool `env:"STATUS_API_ENABLED" envDefault:"true"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Logging
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
	LogTelegramChatID       int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError           int    `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration    int    `env:"LOG_TOPIC_REGISTRATION"`
	LogTopicPremiumPurchase int    `env:"LOG_TOPIC_PREMIUM_PURCHASE"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.AdminIDs))
	for i, id := range c.AdminIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ChatURL is the endpoint of the guide chat call.
func (c *Config) ChatURL() string {
	return joinURL(c.GuideAPIURL, c.GuideChatPath)
}

// TilesURL is the base endpoint of the tile call; the category is appended.
func (c *Config) TilesURL() string {
	return joinURL(c.GuideAPIURL, c.GuideTilesPath)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
