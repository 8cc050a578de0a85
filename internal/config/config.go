// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPollIntervalSeconds = 60
	DefaultMaxFeedBytes        = 8_000_000
	DefaultEmbedColor          = 0x5865F2
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken    string
	DatabasePath        string
	LogLevel            string
	AllowedUsers        []int64
	PollIntervalSeconds int
	MaxFeedBytes        int64
	EmbedColor          int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	interval := DefaultPollIntervalSeconds
	if raw := os.Getenv("POLL_INTERVAL_SECONDS"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS %q", raw)
		}
		interval = v
	}

	maxBytes := int64(DefaultMaxFeedBytes)
	if raw := os.Getenv("MAX_FEED_BYTES"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("invalid MAX_FEED_BYTES %q", raw)
		}
		maxBytes = v
	}

	color := DefaultEmbedColor
	if raw := os.Getenv("EMBED_COLOR"); raw != "" {
		v, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 16, 32)
		if err != nil || v < 0 || v > 0xFFFFFF {
			return nil, fmt.Errorf("invalid EMBED_COLOR %q", raw)
		}
		color = int(v)
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	return &Config{
		TelegramBotToken:    token,
		DatabasePath:        dbPath,
		LogLevel:            logLevel,
		AllowedUsers:        allowedUsers,
		PollIntervalSeconds: interval,
		MaxFeedBytes:        maxBytes,
		EmbedColor:          color,
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
