package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// DataDir is the root for temp artifacts, finished videos and music.
	DataDir string
	// PublicBaseURL is the externally reachable address of this service. Temp
	// artifacts are exposed under it so the video provider and the compositor
	// can fetch them.
	PublicBaseURL string

	// Generative-video provider (kie.ai wire contract).
	KieAPIKey          string
	KieBaseURL         string
	KieModel           string
	KieCreateRetries   int
	KieBackoffBase     time.Duration
	KieBackoffCap      time.Duration
	KiePollInterval    time.Duration
	KiePollMaxAttempts int

	// Collaborators.
	PexelsAPIKey   string
	TTSBaseURL     string
	DefaultVoice   string
	WhisperBaseURL string
	FFmpegPath     string
	CompositorCmd  string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "3123"),
		DataDir:            getEnv("DATA_DIR", defaultDataDir()),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:3123"),
		KieAPIKey:          os.Getenv("KIE_API_KEY"),
		KieBaseURL:         getEnv("KIE_BASE_URL", "https://api.kie.ai"),
		KieModel:           getEnv("KIE_MODEL", "veo3_fast"),
		KieCreateRetries:   getEnvInt("KIE_CREATE_RETRIES", 2),
		KieBackoffBase:     time.Millisecond * time.Duration(getEnvInt("KIE_BACKOFF_BASE_MS", 2000)),
		KieBackoffCap:      time.Millisecond * time.Duration(getEnvInt("KIE_BACKOFF_CAP_MS", 30000)),
		KiePollInterval:    time.Second * time.Duration(getEnvInt("KIE_POLL_INTERVAL_SECONDS", 10)),
		KiePollMaxAttempts: getEnvInt("KIE_POLL_MAX_ATTEMPTS", 60),
		PexelsAPIKey:       os.Getenv("PEXELS_API_KEY"),
		TTSBaseURL:         getEnv("TTS_BASE_URL", "http://localhost:8880"),
		DefaultVoice:       getEnv("DEFAULT_VOICE", "af_heart"),
		WhisperBaseURL:     getEnv("WHISPER_BASE_URL", "http://localhost:8178"),
		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		CompositorCmd:      getEnv("COMPOSITOR_CMD", "remotion-render"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if cfg.KieCreateRetries < 0 {
		return nil, fmt.Errorf("KIE_CREATE_RETRIES must not be negative")
	}
	if cfg.KiePollMaxAttempts <= 0 {
		return nil, fmt.Errorf("KIE_POLL_MAX_ATTEMPTS must be positive")
	}
	if !filepath.IsAbs(cfg.DataDir) {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = abs
	}

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".ai-agents-az-video-generator")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
