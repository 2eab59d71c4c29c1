package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string
	Port   string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret       string
	StartingCredits int
	CORSOrigins     []string
	RequestTimeout  time.Duration
	MaxUploadBytes  int64

	AIProvider    string
	GeminiAPIKey  string
	GenModel      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	S3Endpoint   string

	MaxChunkSize      int
	MaxChunks         int
	GenMaxAttempts    int
	GenRetryBaseDelay time.Duration
	GenAttemptTimeout time.Duration

	SentryDSN string
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "development"
}

// LoadConfig loads .env (if present) and the environment into a Config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", "./data/studia.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		StartingCredits: getEnvInt("STARTING_CREDITS", 20),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 5*time.Minute),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),

		AIProvider:    getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GenModel:      getEnv("GEN_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),

		MaxChunkSize:      getEnvInt("MAX_CHUNK_SIZE", 4000),
		MaxChunks:         getEnvInt("MAX_CHUNKS", 50),
		GenMaxAttempts:    getEnvInt("GEN_MAX_ATTEMPTS", 3),
		GenRetryBaseDelay: getEnvDuration("GEN_RETRY_BASE_DELAY", time.Second),
		GenAttemptTimeout: getEnvDuration("GEN_ATTEMPT_TIMEOUT", 90*time.Second),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	switch cfg.AIProvider {
	case "gemini", "openai":
	default:
		return nil, errors.New("AI_PROVIDER must be gemini or openai")
	}

	return cfg, nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config value is not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config value is not a duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
