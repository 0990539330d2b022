package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DB_PATH", "AUDIO_DIR", "ALARM_SRC", "SESSION_PHASES",
		"TICK_INTERVAL_MS", "LOG_LEVEL", "STREAM_BITRATE", "ACCESS_PASSWORD", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if !cfg.ThreePhase {
		t.Error("three-phase mode should be the default")
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.TickInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("log level = %v", cfg.LogLevel)
	}
	if cfg.AlarmSrc != filepath.Join("./public/audio", "alarm.mp3") {
		t.Errorf("alarm src = %q", cfg.AlarmSrc)
	}
	if cfg.AccessPassword != "" {
		t.Error("access control should be off by default")
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_PHASES", "2")
	t.Setenv("TICK_INTERVAL_MS", "100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STREAM_BITRATE", "0")
	t.Setenv("AUDIO_DIR", "/srv/audio")
	t.Setenv("ALARM_SRC", "")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.ThreePhase {
		t.Error("SESSION_PHASES=2 should select two-phase mode")
	}
	if cfg.TickInterval != 100*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.TickInterval)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.LogLevel)
	}
	if cfg.StreamBitrate != 0 {
		t.Errorf("stream bitrate = %d", cfg.StreamBitrate)
	}
	if cfg.AlarmSrc != "/srv/audio/alarm.mp3" {
		t.Errorf("alarm src = %q", cfg.AlarmSrc)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "fast")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.TickInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("log level = %v", cfg.LogLevel)
	}
}
