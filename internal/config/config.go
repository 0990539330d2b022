package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	// AccessPassword turns on access control when set.
	AccessPassword string
	AudioDir       string
	LibraryCatalog string
	AlarmSrc       string
	ThreePhase     bool
	TickInterval   time.Duration
	LogLevel       slog.Level
	// StreamBitrate is the library stream bitrate in kbit/s; 0 disables the
	// stream endpoints.
	StreamBitrate int
}

func Load() Config {
	audioDir := getEnv("AUDIO_DIR", "./public/audio")
	return Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/pomodisc.db"),
		JWTSecret:      getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		MigrationsDir:  os.Getenv("MIGRATIONS_DIR"),
		AccessPassword: os.Getenv("ACCESS_PASSWORD"),
		AudioDir:       audioDir,
		LibraryCatalog: os.Getenv("LIBRARY_CATALOG"),
		AlarmSrc:       getEnv("ALARM_SRC", filepath.Join(audioDir, "alarm.mp3")),
		ThreePhase:     getEnvInt("SESSION_PHASES", 3) != 2,
		TickInterval:   time.Duration(getEnvInt("TICK_INTERVAL_MS", 250)) * time.Millisecond,
		LogLevel:       getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		StreamBitrate:  getEnvInt("STREAM_BITRATE", 128),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}
