package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	TransportREST = "rest"
	TransportSDK  = "sdk"

	LocatorChrome = "chrome"
	LocatorStatic = "static"
)

// DefaultTargetURL is the map listing whose feed carries the weekly menu photo.
const DefaultTargetURL = "https://map.naver.com/p/entry/place/1671594903?c=15.00,0,0,0,dh&placePath=/feed"

// Config holds the configuration for the application.
type Config struct {
	Env string

	// Model
	GeminiAPIKey    string
	GeminiModel     string
	GeminiTransport string
	GeminiBaseURL   string

	// Pipeline
	TargetURL      string
	Locator        string
	LocatorTimeout time.Duration
	LocatorSettle  time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration

	// Storage
	MenuPath     string
	DatabasePath string

	// Server
	Port string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// Ghost Config (publish only)
	GhostURL      string
	GhostAdminKey string
}

// NewFromEnv creates a new Config object from environment variables and an
// optional config.yaml in the working directory or ./config.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_TRANSPORT", TransportREST)
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("TARGET_URL", DefaultTargetURL)
	v.SetDefault("LOCATOR", LocatorChrome)
	v.SetDefault("LOCATOR_TIMEOUT", "20s")
	v.SetDefault("LOCATOR_SETTLE", "3s")
	v.SetDefault("RETRY_ATTEMPTS", 1)
	v.SetDefault("RETRY_BACKOFF", "2s")
	v.SetDefault("MENU_PATH", "weekly_menu.json")
	v.SetDefault("DATABASE_PATH", "data/lunch-menu.db")
	v.SetDefault("PORT", "8080")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	transport := strings.ToLower(v.GetString("GEMINI_TRANSPORT"))
	if transport != TransportREST && transport != TransportSDK {
		return nil, fmt.Errorf("GEMINI_TRANSPORT must be %q or %q, got %q", TransportREST, TransportSDK, transport)
	}

	locator := strings.ToLower(v.GetString("LOCATOR"))
	if locator != LocatorChrome && locator != LocatorStatic {
		return nil, fmt.Errorf("LOCATOR must be %q or %q, got %q", LocatorChrome, LocatorStatic, locator)
	}

	locatorTimeout, err := durationValue(v, "LOCATOR_TIMEOUT")
	if err != nil {
		return nil, err
	}
	locatorSettle, err := durationValue(v, "LOCATOR_SETTLE")
	if err != nil {
		return nil, err
	}
	retryBackoff, err := durationValue(v, "RETRY_BACKOFF")
	if err != nil {
		return nil, err
	}

	retryAttempts, err := strconv.Atoi(v.GetString("RETRY_ATTEMPTS"))
	if err != nil || retryAttempts < 1 {
		return nil, fmt.Errorf("RETRY_ATTEMPTS must be a positive integer, got %q", v.GetString("RETRY_ATTEMPTS"))
	}

	allowed, err := parseIDList(v.GetString("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if s := v.GetString("ADMIN_TELEGRAM_ID"); s != "" {
		if adminID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be numeric, got %q", s)
		}
	}

	return &Config{
		Env:                    v.GetString("ENV"),
		GeminiAPIKey:           v.GetString("GEMINI_API_KEY"),
		GeminiModel:            v.GetString("GEMINI_MODEL"),
		GeminiTransport:        transport,
		GeminiBaseURL:          strings.TrimRight(v.GetString("GEMINI_BASE_URL"), "/"),
		TargetURL:              v.GetString("TARGET_URL"),
		Locator:                locator,
		LocatorTimeout:         locatorTimeout,
		LocatorSettle:          locatorSettle,
		RetryAttempts:          retryAttempts,
		RetryBackoff:           retryBackoff,
		MenuPath:               v.GetString("MENU_PATH"),
		DatabasePath:           v.GetString("DATABASE_PATH"),
		Port:                   v.GetString("PORT"),
		TelegramBotToken:       v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     v.GetString("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
		GhostURL:               strings.TrimRight(v.GetString("GHOST_API_URL"), "/"),
		GhostAdminKey:          v.GetString("GHOST_ADMIN_API_KEY"),
	}, nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RequireGemini checks the settings needed by the extraction pipeline.
func (c *Config) RequireGemini() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	return nil
}

// RequireTelegram checks the settings needed by the Telegram bot.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// RequireGhost checks the settings needed to publish to Ghost.
func (c *Config) RequireGhost() error {
	if c.GhostURL == "" {
		return fmt.Errorf("GHOST_API_URL environment variable not set")
	}
	if c.GhostAdminKey == "" {
		return fmt.Errorf("GHOST_ADMIN_API_KEY environment variable not set")
	}
	return nil
}

func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 20s, got %q", key, v.GetString(key))
	}
	return d, nil
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
