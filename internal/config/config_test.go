package config

import (
	"os"
	"path/filepath"
	"testing"
)

var allKeys = []string{
	"OPENAI_API_URL", "OPENAI_API_KEY",
	"RADIO_CHAT_MODEL", "RADIO_TTS_MODEL", "RADIO_TTS_VOICE",
	"RADIO_TTS_FORMAT", "RADIO_TTS_SPEED",
	"RADIO_MUSIC_DIR", "RADIO_VISUALS_DIR", "RADIO_DEFAULT_COVER",
	"RADIO_STATION_NAME", "RADIO_TRACKS_PER_BREAK", "RADIO_QUEUE_CAP",
	"RADIO_WORKERS", "RADIO_PORT", "RADIO_LOG_LEVEL", "RADIO_LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		// t.Setenv registers the restore; overwrite with empty below.
		if v, ok := os.LookupEnv(k); ok {
			t.Setenv(k, v)
		}
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.APIURL != "https://api.openai.com/v1" {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty default", cfg.APIKey)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %q, want 'gpt-4o-mini'", cfg.ChatModel)
	}
	if cfg.TTSModel != "tts-1" {
		t.Errorf("TTSModel = %q, want 'tts-1'", cfg.TTSModel)
	}
	if cfg.TTSVoice != "onyx" {
		t.Errorf("TTSVoice = %q, want 'onyx'", cfg.TTSVoice)
	}
	if cfg.TTSFormat != "mp3" {
		t.Errorf("TTSFormat = %q, want 'mp3'", cfg.TTSFormat)
	}
	if cfg.TTSSpeed != 1.0 {
		t.Errorf("TTSSpeed = %f, want 1.0", cfg.TTSSpeed)
	}
	if cfg.MusicDir != "./music" {
		t.Errorf("MusicDir = %q, want './music'", cfg.MusicDir)
	}
	if cfg.VisualsDir != "./visuals" {
		t.Errorf("VisualsDir = %q, want './visuals'", cfg.VisualsDir)
	}
	if cfg.DefaultCover != "./visuals/default-cover.png" {
		t.Errorf("DefaultCover = %q, want default", cfg.DefaultCover)
	}
	if cfg.StationName != "ai-radio" {
		t.Errorf("StationName = %q, want 'ai-radio'", cfg.StationName)
	}
	if cfg.TracksPerBreak != 4 {
		t.Errorf("TracksPerBreak = %d, want 4", cfg.TracksPerBreak)
	}
	if cfg.QueueCap != 8 {
		t.Errorf("QueueCap = %d, want 8", cfg.QueueCap)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want 'info'", cfg.LogLevel)
	}
	if cfg.LogFile != "" {
		t.Errorf("LogFile = %q, want empty", cfg.LogFile)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_URL", "http://localhost:9000/v1")
	t.Setenv("OPENAI_API_KEY", "test-key-123")
	t.Setenv("RADIO_CHAT_MODEL", "gpt-4o")
	t.Setenv("RADIO_TTS_MODEL", "tts-1-hd")
	t.Setenv("RADIO_TTS_VOICE", "nova")
	t.Setenv("RADIO_TTS_FORMAT", "opus")
	t.Setenv("RADIO_TTS_SPEED", "1.25")
	t.Setenv("RADIO_MUSIC_DIR", "/srv/music")
	t.Setenv("RADIO_VISUALS_DIR", "/srv/visuals")
	t.Setenv("RADIO_DEFAULT_COVER", "/srv/cover.png")
	t.Setenv("RADIO_STATION_NAME", "late night lounge")
	t.Setenv("RADIO_TRACKS_PER_BREAK", "6")
	t.Setenv("RADIO_QUEUE_CAP", "16")
	t.Setenv("RADIO_WORKERS", "4")
	t.Setenv("RADIO_PORT", "3000")
	t.Setenv("RADIO_LOG_LEVEL", "debug")
	t.Setenv("RADIO_LOG_FILE", "/var/log/radio.log")

	cfg := Load()

	if cfg.APIURL != "http://localhost:9000/v1" {
		t.Errorf("APIURL = %q, want env override", cfg.APIURL)
	}
	if cfg.APIKey != "test-key-123" {
		t.Errorf("APIKey = %q, want env override", cfg.APIKey)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %q, want 'gpt-4o'", cfg.ChatModel)
	}
	if cfg.TTSModel != "tts-1-hd" {
		t.Errorf("TTSModel = %q, want 'tts-1-hd'", cfg.TTSModel)
	}
	if cfg.TTSVoice != "nova" {
		t.Errorf("TTSVoice = %q, want 'nova'", cfg.TTSVoice)
	}
	if cfg.TTSFormat != "opus" {
		t.Errorf("TTSFormat = %q, want 'opus'", cfg.TTSFormat)
	}
	if cfg.TTSSpeed != 1.25 {
		t.Errorf("TTSSpeed = %f, want 1.25", cfg.TTSSpeed)
	}
	if cfg.MusicDir != "/srv/music" {
		t.Errorf("MusicDir = %q, want env override", cfg.MusicDir)
	}
	if cfg.StationName != "late night lounge" {
		t.Errorf("StationName = %q, want env override", cfg.StationName)
	}
	if cfg.TracksPerBreak != 6 {
		t.Errorf("TracksPerBreak = %d, want 6", cfg.TracksPerBreak)
	}
	if cfg.QueueCap != 16 {
		t.Errorf("QueueCap = %d, want 16", cfg.QueueCap)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want 'debug'", cfg.LogLevel)
	}
	if cfg.LogFile != "/var/log/radio.log" {
		t.Errorf("LogFile = %q, want env override", cfg.LogFile)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("RADIO_PORT", "not-a-number")
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("invalid int env should fall back to default: got %d, want 8080", cfg.Port)
	}
}

func TestEnvFloatInvalidFallsBack(t *testing.T) {
	t.Setenv("RADIO_TTS_SPEED", "fast")
	cfg := Load()
	if cfg.TTSSpeed != 1.0 {
		t.Errorf("invalid float env should fall back to default: got %f, want 1.0", cfg.TTSSpeed)
	}
}

func TestValidate(t *testing.T) {
	musicDir := t.TempDir()

	base := Config{
		APIKey:         "k",
		MusicDir:       musicDir,
		TracksPerBreak: 4,
		QueueCap:       8,
		Workers:        2,
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"missing music dir", func(c *Config) { c.MusicDir = filepath.Join(musicDir, "nope") }},
		{"zero tracks per break", func(c *Config) { c.TracksPerBreak = 0 }},
		{"zero queue cap", func(c *Config) { c.QueueCap = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateMusicDirIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.mp3")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{APIKey: "k", MusicDir: file, TracksPerBreak: 4, QueueCap: 8, Workers: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("file as music dir should fail validation")
	}
}
