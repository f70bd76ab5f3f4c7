// Package config loads the bot configuration from environment variables.
// envconfig maps environment variables onto the Config struct fields.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds ALL application settings.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Comma-separated Telegram user IDs authorized as admins.
	AdminIDsRaw string  `envconfig:"ADMIN_IDS" default:""`
	AdminIDs    []int64 `envconfig:"-"` // filled in by Load

	// --- Database ---
	// Inside Docker "localhost" is almost always wrong. Default is "postgres"
	// (the docker-compose service name); override DB_HOST=localhost for local runs.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"parkwatch"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// How many updates are processed in parallel. Without a cap, "one goroutine
	// per update" leaks memory under flood.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Report validation ---
	MaxReportsPerWindow  int           `envconfig:"MAX_REPORTS_PER_WINDOW" default:"3"`
	RateWindow           time.Duration `envconfig:"RATE_WINDOW" default:"1h"`
	DuplicateWindow      time.Duration `envconfig:"DUPLICATE_WINDOW" default:"5m"`
	DuplicateRadiusM     float64       `envconfig:"DUPLICATE_RADIUS_METERS" default:"200"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"300s"`
	DescriptionMaxLength int           `envconfig:"DESCRIPTION_MAX_LENGTH" default:"100"`

	// --- Sighting lifecycle ---
	SightingExpiry time.Duration `envconfig:"SIGHTING_EXPIRY" default:"30m"`
	Retention      time.Duration `envconfig:"RETENTION" default:"720h"`
	FeedbackWindow time.Duration `envconfig:"FEEDBACK_WINDOW" default:"24h"`

	// --- Moderation ---
	FlagMinVotes        int     `envconfig:"FLAG_MIN_VOTES" default:"3"`
	FlagNegativeRatio   float64 `envconfig:"FLAG_NEGATIVE_RATIO" default:"0.7"`
	LowAccuracyMax      float64 `envconfig:"LOW_ACCURACY_MAX" default:"0.5"`
	LowAccuracyMinVotes int     `envconfig:"LOW_ACCURACY_MIN_VOTES" default:"5"`
	MaxWarnings         int     `envconfig:"MAX_WARNINGS" default:"3"` // 0 disables auto-ban
	AccuracyMinFeedback int     `envconfig:"ACCURACY_MIN_FEEDBACK" default:"3"`

	// --- Admin auth ---
	// Optional argon2id hash; when set, admins must /admin login before
	// moderation commands are accepted.
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" default:""`

	// --- Broadcast ---
	BroadcastWorkers int `envconfig:"BROADCAST_WORKERS" default:"8"`

	// --- Health ---
	HealthEnabled bool `envconfig:"HEALTH_CHECK_ENABLED" default:"true"`
	HealthPort    int  `envconfig:"HEALTH_CHECK_PORT" default:"8080"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT must be > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS must be > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.MaxReportsPerWindow <= 0 || c.RateWindow <= 0 {
		return fmt.Errorf("invalid rate limit settings")
	}
	if c.DuplicateWindow <= 0 || c.DuplicateRadiusM <= 0 {
		return fmt.Errorf("invalid duplicate detection settings")
	}
	if c.FlagMinVotes <= 0 || c.FlagNegativeRatio <= 0 || c.FlagNegativeRatio >= 1 {
		return fmt.Errorf("invalid auto-flag settings")
	}
	if c.MaxWarnings < 0 {
		return fmt.Errorf("MAX_WARNINGS must be >= 0")
	}
	if c.BroadcastWorkers <= 0 {
		return fmt.Errorf("BROADCAST_WORKERS must be > 0")
	}
	return nil
}

// Load reads environment variables and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsAdmin reports whether the given user is in the configured admin set.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
