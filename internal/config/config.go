package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	PostgresDSN    string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	SessionSecret  string
	CORSOrigins    []string
	LogLevel       string

	RemoteTimeout            time.Duration
	ActivityLimit            int
	RequireEmailConfirmation bool
	ActivityRetention        time.Duration
	ActivityPruneSchedule    string

	// Warnings lists values that were malformed and replaced by defaults.
	// The logger does not exist yet when Load runs, so main logs them.
	Warnings []string
}

// Load reads an optional .env file from dotenvPath (empty means ".env") and
// then the process environment, which wins over the file.
func Load(dotenvPath string) *Config {
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	_ = godotenv.Load(dotenvPath)

	c := &Config{
		Port:                  getenv("PORT", "8080"),
		PostgresDSN:           getenv("POSTGRES_DSN", ""),
		MongoURI:              getenv("MONGO_URI", ""),
		MongoDB:               getenv("MONGO_DB", "estate_hub"),
		RedisAddr:             getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:         getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:         getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:        getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:        getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:           getenv("MINIO_BUCKET", "property-images"),
		MinioUseSSL:           getenv("MINIO_USE_SSL", "false") == "true",
		SessionSecret:         getenv("SESSION_SECRET", ""),
		CORSOrigins:           splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		ActivityPruneSchedule: getenv("ACTIVITY_PRUNE_SCHEDULE", "0 3 * * *"),
	}
	c.RemoteTimeout = c.duration("REMOTE_TIMEOUT", 15*time.Second)
	c.ActivityLimit = c.integer("ACTIVITY_LIMIT", 200)
	c.RequireEmailConfirmation = c.boolean("REQUIRE_EMAIL_CONFIRMATION", false)
	c.ActivityRetention = c.duration("ACTIVITY_RETENTION", 90*24*time.Hour)
	return c
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		c.warn(key, v, fallback)
		return fallback
	}
	return d
}

func (c *Config) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.warn(key, v, fallback)
		return fallback
	}
	return n
}

func (c *Config) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.warn(key, v, fallback)
		return fallback
	}
	return b
}

func (c *Config) warn(key, value string, fallback any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is invalid, using %v", key, value, fallback))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
