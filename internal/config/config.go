package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is resolved once at process start and passed down.
type Config struct {
	// APIURL is the authoritative REST API root.
	APIURL string
	// RemoteEnabled is false when the deployment has no API; mutations then short-circuit.
	RemoteEnabled bool
	// SnapshotPath is the static dataset consulted after the API. Empty disables it.
	SnapshotPath string
	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout      time.Duration
	RequestsPerSecond int
	UserAgent         string
	LogLevel          string
}

// Server configures the mock REST server.
type Server struct {
	Port           string
	DBFile         string
	ResponseDelay  time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	Watch          bool
	LogLevel       string
}

// LoadEnvFiles reads .env and .env.local without overriding the environment
// provided by the runtime.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads the client configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		APIURL:            getEnv("LIBRARY_API_URL", "http://localhost:10000"),
		RemoteEnabled:     !isOff(getEnv("LIBRARY_REMOTE", "on")),
		SnapshotPath:      getEnv("LIBRARY_SNAPSHOT", "public/data.json"),
		RequestsPerSecond: getEnvInt("LIBRARY_RPS", 10),
		UserAgent:         getEnv("LIBRARY_USER_AGENT", "booklib/1.0"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	if isOff(cfg.SnapshotPath) {
		cfg.SnapshotPath = ""
	}

	timeout, err := getEnvDuration("LIBRARY_FETCH_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FetchTimeout = timeout

	if cfg.RemoteEnabled {
		u, err := url.Parse(cfg.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Config{}, fmt.Errorf("invalid LIBRARY_API_URL %q", cfg.APIURL)
		}
	}
	return cfg, nil
}

// LoadServer reads the mock server configuration from the environment.
func LoadServer() (Server, error) {
	cfg := Server{
		Port:           getEnv("PORT", "10000"),
		DBFile:         getEnv("DB_FILE", "db.json"),
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 100),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		Watch:          !isOff(getEnv("DB_WATCH", "on")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	delay, err := getEnvDuration("RESPONSE_DELAY", 100*time.Millisecond)
	if err != nil {
		return Server{}, err
	}
	cfg.ResponseDelay = delay

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "50"), 64)
	if err != nil {
		return Server{}, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	cfg.RateLimitRPS = rps

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Server{}, fmt.Errorf("invalid PORT %q", cfg.Port)
	}
	return cfg, nil
}

// Addr returns the listen address for the server.
func (s Server) Addr() string {
	return ":" + s.Port
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func isOff(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "off", "false", "0", "no", "none":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
