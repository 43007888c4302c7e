package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather upstream.
	WeatherAPIKey  string
	WeatherTimeout time.Duration

	// Firebase / Firestore.
	ProjectID           string
	CredentialsFile     string
	FirestoreCollection string

	// Job cadence and sizing.
	EvalInterval  time.Duration
	GCInterval    time.Duration
	EvalBatchSize int
	GCPageSize    int
	GCConcurrency int
	StaleAfter    time.Duration

	// Notification payload deep-link target.
	SiteURL string

	// Kafka audit sink (disabled when no brokers are set).
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("OPENWEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	evalInterval, err := parseDuration("EVAL_INTERVAL", "30m")
	if err != nil {
		return nil, err
	}
	gcInterval, err := parseDuration("GC_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}
	staleAfter, err := parseDuration("STALE_AFTER", "2160h") // 90 days
	if err != nil {
		return nil, err
	}

	evalBatchSize, err := parseInt("EVAL_BATCH_SIZE", 1000, 1, maxBatchSize)
	if err != nil {
		return nil, err
	}
	gcPageSize, err := parseInt("GC_PAGE_SIZE", 500, 1, maxBatchSize)
	if err != nil {
		return nil, err
	}
	gcConcurrency, err := parseInt("GC_CONCURRENCY", 100, 1, 100)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		WeatherTimeout: weatherTimeout,

		ProjectID:           os.Getenv("GOOGLE_CLOUD_PROJECT"),
		CredentialsFile:     os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FirestoreCollection: envOrDefault("FIRESTORE_COLLECTION", "subscriptions"),

		EvalInterval:  evalInterval,
		GCInterval:    gcInterval,
		EvalBatchSize: evalBatchSize,
		GCPageSize:    gcPageSize,
		GCConcurrency: gcConcurrency,
		StaleAfter:    staleAfter,

		SiteURL: envOrDefault("SITE_URL", "https://thermosafe.app"),

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "notification-events"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.WeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: must be %d-%d", key, min, max)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
