package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	SQSQueueURL     string

	LLMProvider          string
	LLMModel             string
	GeminiAPIKey         string
	GeminiVertexProject  string
	GeminiVertexLocation string
	OpenAIAPIKey         string

	SteamStoreURL string
	SteamSpyURL   string

	CacheTTLOverrides  string
	CacheSweepSchedule string
	MarketTuningFile   string

	RateLimitRPS      float64
	RateLimitBurst    int
	LLMRateLimitRPS   float64
	LLMRateLimitBurst int
	PollWindow        time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		SQSQueueURL:     getEnv("SQS_QUEUE_URL", ""),

		LLMProvider:          normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:             getEnv("LLM_MODEL", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiVertexProject:  getEnv("GEMINI_VERTEX_PROJECT", ""),
		GeminiVertexLocation: getEnv("GEMINI_VERTEX_LOCATION", "us-central1"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),

		SteamStoreURL: getEnv("STEAM_STORE_URL", ""),
		SteamSpyURL:   getEnv("STEAMSPY_URL", ""),

		CacheTTLOverrides:  getEnv("CACHE_TTL_OVERRIDES", ""),
		CacheSweepSchedule: getEnv("CACHE_SWEEP_SCHEDULE", "@every 1h"),
		MarketTuningFile:   getEnv("MARKET_TUNING_FILE", ""),

		RateLimitRPS:      getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 20),
		LLMRateLimitRPS:   getFloat("LLM_RATE_LIMIT_RPS", 0.2),
		LLMRateLimitBurst: getInt("LLM_RATE_LIMIT_BURST", 3),
		PollWindow:        time.Duration(getInt("POLL_WINDOW_MS", 1000)) * time.Millisecond,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "off":
		return "none"
	default:
		return "gemini"
	}
}
