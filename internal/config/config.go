package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultUpstreamURL = "https://movie-database-alternative.p.rapidapi.com/"
	defaultTimeout     = 30 * time.Second
)

var ErrMissingUpstream = errors.New("RAPIDAPI_HOST and RAPIDAPI_KEY are required")

// Upstream holds the settings for the third-party movie database.
type Upstream struct {
	BaseURL string
	Host    string
	Key     string
	Timeout time.Duration
}

// Server holds the proxy listener settings.
type Server struct {
	Port      string
	RateLimit float64
	RateBurst int
}

// Storage selects the persistence backend for bookmarks and reviews.
type Storage struct {
	Driver    string
	Path      string
	Namespace string
}

// UpstreamConfig reads the movie database settings. Host and key have no
// defaults and their absence is reported as ErrMissingUpstream.
func UpstreamConfig() (Upstream, error) {
	cfg := Upstream{
		BaseURL: GetEnv("RAPIDAPI_URL", defaultUpstreamURL),
		Host:    strings.TrimSpace(os.Getenv("RAPIDAPI_HOST")),
		Key:     strings.TrimSpace(os.Getenv("RAPIDAPI_KEY")),
		Timeout: GetDuration("UPSTREAM_TIMEOUT", defaultTimeout),
	}
	if cfg.Host == "" || cfg.Key == "" {
		return cfg, ErrMissingUpstream
	}
	return cfg, nil
}

func ServerConfig() Server {
	return Server{
		Port:      GetEnv("PORT", "8080"),
		RateLimit: GetFloat("RATE_LIMIT", 0),
		RateBurst: GetInt("RATE_BURST", 20),
	}
}

func StorageConfig() Storage {
	return Storage{
		Driver:    strings.ToLower(GetEnv("STORAGE_DRIVER", "bolt")),
		Path:      GetEnv("STORAGE_PATH", "moviemark.db"),
		Namespace: GetEnv("STORAGE_NAMESPACE", "default"),
	}
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "redis")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// DatabaseConfig returns host, port, user, password, database name
func DatabaseConfig() (string, string, string, string, string) {
	host := GetEnv("DB_HOST", "localhost")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "")
	password := GetEnv("DB_PASSWORD", "")
	databaseName := GetEnv("DB_NAME", "moviemark")
	return host, port, user, password, databaseName
}

// CacheTTL is how long upstream payloads stay in redis. Zero disables caching.
func CacheTTL() time.Duration {
	return GetDuration("CACHE_TTL", 0)
}

func APIURL() string {
	return strings.TrimRight(GetEnv("API_URL", "http://localhost:8080"), "/")
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(GetEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// Describe renders a storage selection for log lines.
func (s Storage) Describe() string {
	switch s.Driver {
	case "bolt":
		return fmt.Sprintf("bolt:%s", s.Path)
	case "memory":
		return "memory"
	default:
		return fmt.Sprintf("%s:%s", s.Driver, s.Namespace)
	}
}
