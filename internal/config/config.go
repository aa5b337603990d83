package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// OpenAI-compatible endpoint used for both chat completions and speech
	APIURL string
	APIKey string

	// Generation models
	ChatModel string
	TTSModel  string
	TTSVoice  string
	TTSFormat string
	TTSSpeed  float64

	// Content directories
	MusicDir     string
	VisualsDir   string
	DefaultCover string

	// Station behavior
	StationName    string
	TracksPerBreak int // music tracks between DJ breaks
	QueueCap       int // injection queue bound
	Workers        int // generation worker pool size

	// Server
	Port int

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIURL: envStr("OPENAI_API_URL", "https://api.openai.com/v1"),
		APIKey: envStr("OPENAI_API_KEY", ""),

		ChatModel: envStr("RADIO_CHAT_MODEL", "gpt-4o-mini"),
		TTSModel:  envStr("RADIO_TTS_MODEL", "tts-1"),
		TTSVoice:  envStr("RADIO_TTS_VOICE", "onyx"),
		TTSFormat: envStr("RADIO_TTS_FORMAT", "mp3"),
		TTSSpeed:  envFloat("RADIO_TTS_SPEED", 1.0),

		MusicDir:     envStr("RADIO_MUSIC_DIR", "./music"),
		VisualsDir:   envStr("RADIO_VISUALS_DIR", "./visuals"),
		DefaultCover: envStr("RADIO_DEFAULT_COVER", "./visuals/default-cover.png"),

		StationName:    envStr("RADIO_STATION_NAME", "ai-radio"),
		TracksPerBreak: envInt("RADIO_TRACKS_PER_BREAK", 4),
		QueueCap:       envInt("RADIO_QUEUE_CAP", 8),
		Workers:        envInt("RADIO_WORKERS", 2),

		Port: envInt("RADIO_PORT", 8080),

		LogLevel: envStr("RADIO_LOG_LEVEL", "info"),
		LogFile:  envStr("RADIO_LOG_FILE", ""),
	}
}

// Validate reports configuration the station cannot start with.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if info, err := os.Stat(c.MusicDir); err != nil {
		return fmt.Errorf("music dir %q: %w", c.MusicDir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("music dir %q is not a directory", c.MusicDir)
	}
	if c.TracksPerBreak < 1 {
		return fmt.Errorf("RADIO_TRACKS_PER_BREAK must be >= 1, got %d", c.TracksPerBreak)
	}
	if c.QueueCap < 1 {
		return fmt.Errorf("RADIO_QUEUE_CAP must be >= 1, got %d", c.QueueCap)
	}
	if c.Workers < 1 {
		return fmt.Errorf("RADIO_WORKERS must be >= 1, got %d", c.Workers)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
