package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the genmusic client
type Config struct {
	// Gemini API configuration
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`
	APIHost      string `envconfig:"GENMUSIC_API_HOST" default:"generativelanguage.googleapis.com"`

	// Lyria RealTime model configuration
	ModelID     string  `envconfig:"MODEL_ID" default:"models/lyria-realtime-exp"`
	DefaultBPM  int     `envconfig:"DEFAULT_BPM" default:"120"`
	Temperature float64 `envconfig:"TEMPERATURE" default:"1.0"`

	// Prompt optimizer (Gemini text model used by --optimize and filename slugs)
	TextModel string `envconfig:"GEMINI_TEXT_MODEL" default:"gemini-2.0-flash"`

	// Jitter buffer configuration
	BufferCapacity int `envconfig:"BUFFER_CAPACITY" default:"500"`      // frames
	FillThreshold  int `envconfig:"BUFFER_FILL_THRESHOLD" default:"20"` // frames before playback starts

	// Batch output configuration
	OutputDir   string `envconfig:"OUTPUT_DIR" default:""` // empty means ~/Music
	HistoryFile string `envconfig:"HISTORY_FILE" default:".music_history.json"`

	// Resilience configuration
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"` // milliseconds
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`        // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"true"`       // Pretty print logs (console client)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"false"` // Enable Prometheus metrics endpoint
	MetricsAddr    string `envconfig:"METRICS_ADDR" default:"127.0.0.1:9464"`
}

// Load reads configuration from environment variables.
// It first loads ~/.config/genmusic/.env if present, then the working
// directory .env, then the environment itself. Later sources win.
func Load() (*Config, error) {
	if dir := ConfigDir(); dir != "" {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.FillThreshold <= 0 || cfg.FillThreshold > cfg.BufferCapacity {
		return nil, fmt.Errorf("BUFFER_FILL_THRESHOLD must be in 1..BUFFER_CAPACITY, got %d/%d",
			cfg.FillThreshold, cfg.BufferCapacity)
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without consulting any .env files.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return &cfg, nil
}

// ConfigDir returns the per-user configuration directory, or "" if the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "genmusic")
}

// MusicDir returns the directory for batch recordings: OUTPUT_DIR if set,
// otherwise ~/Music.
func (c *Config) MusicDir() (string, error) {
	if c.OutputDir != "" {
		return c.OutputDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "Music"), nil
}
