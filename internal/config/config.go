package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process environment. File settings (see File) take
// precedence over it wherever both define a value.
type Config struct {
	LogLevel slog.Level
	LogJSON  bool

	CanvasBaseURL string
	CanvasToken   string

	// Client behaviour
	Concurrency int
	RateLimit   float64 // requests per second, 0 = unlimited
	RetryCount  int
	HTTPTimeout time.Duration
	ConfigPath  string

	CacheDriver string // none|sqlite|postgres|redis
	CacheDSN    string
	CacheTTL    time.Duration

	HTTPAddr      string
	HMACSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt
	RefreshSpec   string // cron spec, e.g. "@every 15m"
	CORSOrigins   []string
	ExportDir     string
}

// LoadDotEnv loads ./.env (or the given files) into the environment. A missing
// file is not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func FromEnv() Config {
	return Config{
		LogLevel:      parseLevel(os.Getenv("LOG_LEVEL")),
		LogJSON:       envBool("LOG_JSON", false),
		CanvasBaseURL: os.Getenv("CANVAS_BASE_URL"),
		CanvasToken:   os.Getenv("CANVAS_TOKEN"),
		Concurrency:   envInt("GRADECALC_CONCURRENCY", 4),
		RateLimit:     envFloat("CANVAS_RATE_LIMIT", 10),
		RetryCount:    envInt("CANVAS_RETRY_COUNT", 3),
		HTTPTimeout:   envDuration("CANVAS_TIMEOUT", 30*time.Second),
		ConfigPath:    os.Getenv("GRADECALC_CONFIG"),
		CacheDriver:   envOr("CACHE_DRIVER", "none"),
		CacheDSN:      os.Getenv("CACHE_DSN"),
		CacheTTL:      envDuration("CACHE_TTL", 10*time.Minute),
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		HMACSecret:    os.Getenv("AUTH_HMAC_SECRET"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: os.Getenv("ADMIN_PASS_HASH"),
		RefreshSpec:   envOr("REFRESH_SPEC", "@every 15m"),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000"),
		ExportDir:     envOr("EXPORT_DIR", "exports"),
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}
func envFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil && v >= 0 {
		return v
	}
	return def
}
func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
