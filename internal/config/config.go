package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the auction engine.
type Config struct {
	Port            string
	LogLevel        string
	AuctionDuration time.Duration
	SweepInterval   time.Duration
	LockTimeout     time.Duration
	EventBuffer     int
	AdminUsers      []string
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	auctionDuration, err := getDuration("AUCTION_DURATION", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid AUCTION_DURATION: %w", err)
	}
	if auctionDuration <= 0 {
		return nil, fmt.Errorf("invalid AUCTION_DURATION: must be positive")
	}

	sweepInterval, err := getDuration("SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}
	if sweepInterval <= 0 {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: must be positive")
	}

	lockTimeout, err := getDuration("LOCK_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TIMEOUT: %w", err)
	}
	if lockTimeout <= 0 {
		return nil, fmt.Errorf("invalid LOCK_TIMEOUT: must be positive")
	}

	eventBuffer, err := getInt("EVENT_BUFFER", 64)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_BUFFER: %w", err)
	}
	if eventBuffer <= 0 {
		return nil, fmt.Errorf("invalid EVENT_BUFFER: must be positive")
	}

	return &Config{
		Port:            getPort(),
		LogLevel:        logLevel,
		AuctionDuration: auctionDuration,
		SweepInterval:   sweepInterval,
		LockTimeout:     lockTimeout,
		EventBuffer:     eventBuffer,
		AdminUsers:      getList("ADMIN_USERS"),
	}, nil
}

// getPort returns the server listen address from env or defaults to ":8080"
func getPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return fmt.Sprintf(":%s", p)
	}
	return ":8080"
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

// getList parses a comma-separated env value, dropping empty entries.
func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
