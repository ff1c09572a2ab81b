package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataGovBaseURL    string
	DataGovResourceID string

	PageSize       int
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	HTTPTimeoutSec int

	CSVOutputDir string
	HTTPAddr     string

	LogLevel       string
	LogDevelopment bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DataGovBaseURL:    getEnv("DATAGOV_BASE_URL", "https://data.gov.sg"),
		DataGovResourceID: getEnv("DATAGOV_RESOURCE_ID", "b80cb643-a732-480d-86b5-e03957bc82aa"),

		PageSize:       getEnvInt("FETCH_PAGE_SIZE", 200),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 30),

		CSVOutputDir: getEnv("CSV_OUTPUT_DIR", "./output"),
		HTTPAddr:     getEnv("HTTP_ADDR", ""),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),
	}
}

// HTTPTimeout returns the per-request timeout for the data source client.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// ServeMode reports whether the process should run the HTTP server instead of a one-shot run.
func (c *Config) ServeMode() bool {
	return c.HTTPAddr != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
