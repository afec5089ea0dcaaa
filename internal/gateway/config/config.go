package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	SiteURL string

	Database   DatabaseConfig
	Archive    ArchiveConfig
	Assistant  AssistantConfig
	Generation GenerationConfig
	Retrieval  RetrievalConfig
}

type DatabaseConfig struct {
	URL string
}

type ArchiveConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AssistantConfig tunes admission control and the decision thresholds.
// Rate counting is per process instance: running several instances behind a
// balancer under-limits in aggregate (no shared counter by design).
type AssistantConfig struct {
	RateWindow          time.Duration
	RateMax             int
	MaxInputChars       int
	ConfidenceThreshold float64
	RetrievalThreshold  float64
	SweepInterval       time.Duration
}

type GenerationConfig struct {
	Provider string // gemini | openai | fake
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

type RetrievalConfig struct {
	BaseURL   string // empty selects the built-in static retriever
	CacheSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:    *port,
		Env:     env,
		SiteURL: firstNonEmpty(strings.TrimSpace(os.Getenv("SITE_URL")), "https://meridianmoto.com"),
		Database: DatabaseConfig{
			URL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
		Archive: ArchiveConfig{
			Endpoint:  strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT")),
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
			Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "waypoint-transcripts"),
			UseSSL:    readBool("ARCHIVE_S3_USE_SSL", !strings.EqualFold(env, "local")),
		},
		Assistant: AssistantConfig{
			RateWindow:          readDurationSeconds("RATE_WINDOW_SECONDS", 60*time.Second),
			RateMax:             readInt("RATE_MAX_REQUESTS", 10),
			MaxInputChars:       readInt("MAX_INPUT_CHARS", 16000),
			ConfidenceThreshold: readFloat("CONFIDENCE_THRESHOLD", 0.08),
			RetrievalThreshold:  readFloat("RETRIEVAL_THRESHOLD", 0.55),
			SweepInterval:       readDurationSeconds("RATE_SWEEP_SECONDS", 5*time.Minute),
		},
		Generation: GenerationConfig{
			Provider: firstNonEmpty(strings.ToLower(strings.TrimSpace(os.Getenv("GENERATION_PROVIDER"))), defaultProvider(env)),
			Model:    strings.TrimSpace(os.Getenv("GENERATION_MODEL")),
			BaseURL:  strings.TrimSpace(os.Getenv("GENERATION_BASE_URL")),
			APIKey:   strings.TrimSpace(os.Getenv("GENERATION_API_KEY")),
			Timeout:  readDurationSeconds("GENERATION_TIMEOUT_SECONDS", 30*time.Second),
		},
		Retrieval: RetrievalConfig{
			BaseURL:   strings.TrimSpace(os.Getenv("RETRIEVAL_URL")),
			CacheSize: readInt("RETRIEVAL_CACHE_SIZE", 512),
		},
	}, nil
}

// CanUseS3 reports whether the archive settings are complete enough to build
// a client.
func (a ArchiveConfig) CanUseS3() bool {
	return a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

func defaultProvider(env string) string {
	if strings.EqualFold(env, "local") {
		return "fake"
	}
	return "gemini"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func readInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func readFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func readBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func readDurationSeconds(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
