package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings shared by every front end.
type Config struct {
	BotToken            string
	DatabaseURL         string
	BadgerPath          string
	Port                int
	LogLevel            string
	LogPretty           bool
	TrackLength         float64
	StartingMoney       int64
	MinBet              int64
	DefaultBet          int64
	TickInterval        time.Duration
	DiscordEditInterval time.Duration
	RosterFile          string
	Seed                int64
}

// LoadEnvFile merges a .env file into the environment. Variables already set
// win, and a missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads configuration from environment variables, applies defaults
// and validates values.
func LoadConfig() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", os.Getenv("PORT"))
	}

	logLevel := strings.ToLower(getStr("LOG_LEVEL", "info"))
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	logPretty, err := getBool("LOG_PRETTY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	trackLength, err := getFloat("TRACK_LENGTH", 800)
	if err != nil || trackLength <= 0 {
		return nil, fmt.Errorf("invalid TRACK_LENGTH: %q", os.Getenv("TRACK_LENGTH"))
	}

	startingMoney, err := getInt64("STARTING_MONEY", 1000)
	if err != nil || startingMoney <= 0 {
		return nil, fmt.Errorf("invalid STARTING_MONEY: %q", os.Getenv("STARTING_MONEY"))
	}

	minBet, err := getInt64("MIN_BET", 10)
	if err != nil || minBet <= 0 {
		return nil, fmt.Errorf("invalid MIN_BET: %q", os.Getenv("MIN_BET"))
	}
	if minBet > startingMoney {
		return nil, fmt.Errorf("invalid MIN_BET: %d is above STARTING_MONEY %d", minBet, startingMoney)
	}

	defaultBet, err := getInt64("DEFAULT_BET", 50)
	if err != nil || defaultBet <= 0 {
		return nil, fmt.Errorf("invalid DEFAULT_BET: %q", os.Getenv("DEFAULT_BET"))
	}

	tickInterval, err := getDuration("TICK_INTERVAL", 30*time.Millisecond)
	if err != nil || tickInterval < 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %q", os.Getenv("TICK_INTERVAL"))
	}

	editInterval, err := getDuration("DISCORD_EDIT_INTERVAL", 1500*time.Millisecond)
	if err != nil || editInterval <= 0 {
		return nil, fmt.Errorf("invalid DISCORD_EDIT_INTERVAL: %q", os.Getenv("DISCORD_EDIT_INTERVAL"))
	}

	seed, err := getInt64("SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED: %w", err)
	}

	return &Config{
		BotToken:            getStr("BOT_TOKEN", ""),
		DatabaseURL:         getStr("DATABASE_URL", ""),
		BadgerPath:          getStr("BADGER_PATH", ""),
		Port:                port,
		LogLevel:            logLevel,
		LogPretty:           logPretty,
		TrackLength:         trackLength,
		StartingMoney:       startingMoney,
		MinBet:              minBet,
		DefaultBet:          defaultBet,
		TickInterval:        tickInterval,
		DiscordEditInterval: editInterval,
		RosterFile:          getStr("ROSTER_FILE", ""),
		Seed:                seed,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
