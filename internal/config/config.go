package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

type Config struct {
	Env  string
	Port int

	StoreDriver string
	DBURL       string
	DBMaxConns  int32
	SQLitePath  string

	// seeded admin account, skipped when email or password is empty
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// registering one of these emails yields an admin account
	AdminEmails   []string
	SeedQuestions bool

	// memory is per process and only safe with a single API instance
	CacheDriver   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CORSAllowedOrigins []string
	AuthRateLimit      int
	AuthRateWindow     time.Duration
	MaxBodyBytes       int64

	OTELEnabled  bool
	OTELEndpoint string
}

func Load() Config {
	// a missing .env is fine, real env vars win either way
	_ = godotenv.Load()

	redisAddr := getEnv("REDIS_ADDR", "")
	cacheDefault := CacheNone
	if redisAddr != "" {
		cacheDefault = CacheRedis
	}

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DBURL:       getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:  int32(getEnvInt("DB_MAX_CONNS", 5)),
		SQLitePath:  getEnv("SQLITE_PATH", "data/qaportal.db"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin User"),
		AdminEmails:   getEnvList("ADMIN_EMAILS"),
		SeedQuestions: getEnvBool("SEED_QUESTIONS", false),

		CacheDriver:   strings.ToLower(getEnv("CACHE_DRIVER", cacheDefault)),
		RedisAddr:     redisAddr,
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Second),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		AuthRateLimit:      getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:     getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// SeedsAdmin reports whether startup creates the ADMIN_EMAIL account.
func (c Config) SeedsAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

// IsBootstrapAdmin reports whether email is listed in ADMIN_EMAILS or is the
// seeded admin. ADMIN_EMAIL alone grants nothing when no password seeds it.
func (c Config) IsBootstrapAdmin(email string) bool {
	if email == "" {
		return false
	}
	if c.SeedsAdmin() && email == c.AdminEmail {
		return true
	}
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "qaportal")
	pass := getEnv("DB_PASSWORD", "qaportal")
	name := getEnv("DB_NAME", "qaportal")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// WithRequestTimeout keeps the request's trace and cancellation.
func WithRequestTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid int env var, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid bool env var, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v)
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
