package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Redis (queue + job status store)
	RedisURL     string
	JobStatusTTL int // hours a finished job's status stays pollable

	// Clip catalog (Supabase storage)
	CatalogURL    string
	CatalogKey    string
	CatalogBucket string

	// OpenAI (Whisper word timestamps; TTS fallback provider)
	OpenAIKey string

	// ElevenLabs (preferred TTS provider)
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// Captions
	TranscriptionEnabled bool
	// MatchRatioThreshold decides when transcription timings are paired with
	// the authored script words instead of the transcription's own words.
	// Empirical; kept configurable rather than baked in.
	MatchRatioThreshold float64

	// Silence trimming
	SilenceNoiseDB float64 // loudness threshold for silencedetect
	MinSilenceSec  float64 // minimum silence length
	// TrailingWindowSec bounds how far before the end a detected silence may
	// start and still count as the true end of speech. Empirical.
	TrailingWindowSec float64

	// Rendering
	TempDir               string
	FontsDir              string
	DefaultFontFile       string
	BannerTopImagePath    string
	BannerBottomImagePath string
	DegradedRenderEnabled bool // opt-in minimal fallback graph after a render failure

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		JobStatusTTL:       getEnvInt("JOB_STATUS_TTL_HOURS", 24),
		CatalogURL:         getEnv("CATALOG_URL", ""),
		CatalogKey:         getEnv("CATALOG_SERVICE_KEY", ""),
		CatalogBucket:      getEnv("CATALOG_BUCKET", "clipsmith-assets"),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		ElevenLabsKey:      getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:  getEnv("ELEVENLABS_VOICE_ID", ""),

		TranscriptionEnabled: getEnvBool("TRANSCRIPTION_ENABLED", true),
		MatchRatioThreshold:  getEnvFloat("MATCH_RATIO_THRESHOLD", 0.7),

		SilenceNoiseDB:    getEnvFloat("SILENCE_NOISE_DB", -35),
		MinSilenceSec:     getEnvFloat("MIN_SILENCE_SEC", 0.25),
		TrailingWindowSec: getEnvFloat("TRAILING_WINDOW_SEC", 1.5),

		TempDir:               getEnv("TEMP_DIR", "/tmp/clipsmith"),
		FontsDir:              getEnv("FONTS_DIR", "assets/fonts"),
		DefaultFontFile:       getEnv("DEFAULT_FONT_FILE", "assets/fonts/NotoSans-Bold.ttf"),
		BannerTopImagePath:    getEnv("BANNER_TOP_IMAGE", "assets/banner/top.png"),
		BannerBottomImagePath: getEnv("BANNER_BOTTOM_IMAGE", "assets/banner/bottom.png"),
		DegradedRenderEnabled: getEnvBool("DEGRADED_RENDER_ENABLED", false),

		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 3),
	}

	// Validate required fields
	if cfg.CatalogURL == "" || cfg.CatalogKey == "" {
		return nil, fmt.Errorf("CATALOG_URL and CATALOG_SERVICE_KEY are required")
	}

	// At least one TTS provider must be configured
	if cfg.ElevenLabsKey == "" && cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("either ELEVENLABS_API_KEY or OPENAI_API_KEY is required for TTS")
	}

	// Transcription needs an OpenAI key; degrade to heuristic timing instead of failing
	if cfg.TranscriptionEnabled && cfg.OpenAIKey == "" {
		cfg.TranscriptionEnabled = false
	}

	if cfg.MatchRatioThreshold <= 0 || cfg.MatchRatioThreshold > 1 {
		return nil, fmt.Errorf("MATCH_RATIO_THRESHOLD must be in (0, 1], got %v", cfg.MatchRatioThreshold)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
