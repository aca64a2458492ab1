package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "compliancehub/pkg/platform/strings"
)

// Config is the full service configuration assembled from the environment.
type Config struct {
	Server    Server
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Blob      Blob
	Documents Documents
	Scanner   Scanner
	Lock      Lock
	Catalog   Catalog
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	AdminToken      string
	JWTSigningKey   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Database selects the Postgres backend. Empty URL keeps in-memory stores.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the notification dedupe backend. Empty URL keeps
// dedupe marks in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DedupeTTL    time.Duration
}

// Kafka configures notification fan-out. Empty Brokers disables it.
type Kafka struct {
	Brokers          []string
	Topic            string
	ClientID         string
	FailureThreshold int
	ProbeCooldown    time.Duration
}

// Blob configures document content storage. Empty Endpoint disables it.
type Blob struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Documents holds upload limits.
type Documents struct {
	MaxSizeBytes        int64
	AllowedContentTypes []string
}

// Scanner configures the background deadline scan.
type Scanner struct {
	Enabled    bool
	Interval   time.Duration
	WindowDays int
}

// Lock bounds per-record lock acquisition.
type Lock struct {
	Attempts int
	Backoff  time.Duration
}

// Catalog points at an optional YAML seed of compliance types.
type Catalog struct {
	SeedFile string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("COMPLIANCEHUB_ADDR", ":8080"),
			LogLevel:        envString("LOG_LEVEL", "info"),
			AdminToken:      envString("ADMIN_API_TOKEN", "dev-admin-token"),
			JWTSigningKey:   envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			ReadTimeout:     envDuration("HTTP_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:    envDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     envBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			DedupeTTL:    envDuration("NOTIFICATION_DEDUPE_TTL", 90*24*time.Hour),
		},
		Kafka: Kafka{
			Brokers:          envList("KAFKA_BROKERS"),
			Topic:            envString("KAFKA_NOTIFICATIONS_TOPIC", "compliance.notifications"),
			ClientID:         envString("KAFKA_CLIENT_ID", "compliancehub"),
			FailureThreshold: envInt("KAFKA_FAILURE_THRESHOLD", 5),
			ProbeCooldown:    envDuration("KAFKA_PROBE_COOLDOWN", 30*time.Second),
		},
		Blob: Blob{
			Endpoint:  os.Getenv("BLOB_ENDPOINT"),
			AccessKey: os.Getenv("BLOB_ACCESS_KEY"),
			SecretKey: os.Getenv("BLOB_SECRET_KEY"),
			Bucket:    envString("BLOB_BUCKET", "compliance-documents"),
			UseSSL:    envBool("BLOB_USE_SSL", false),
		},
		Documents: Documents{
			MaxSizeBytes: int64(envInt("DOCUMENT_MAX_SIZE_BYTES", 25<<20)),
			AllowedContentTypes: envListDefault("DOCUMENT_ALLOWED_CONTENT_TYPES", []string{
				"application/pdf",
				"image/png",
				"image/jpeg",
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			}),
		},
		Scanner: Scanner{
			Enabled:    envBool("DEADLINE_SCANNER_ENABLED", true),
			Interval:   envDuration("DEADLINE_SCAN_INTERVAL", time.Hour),
			WindowDays: envInt("DEADLINE_WINDOW_DAYS", 7),
		},
		Lock: Lock{
			Attempts: envInt("LOCK_ATTEMPTS", 20),
			Backoff:  envDuration("LOCK_BACKOFF", 5*time.Millisecond),
		},
		Catalog: Catalog{
			SeedFile: os.Getenv("CATALOG_SEED_FILE"),
		},
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	return envListDefault(key, nil)
}

func envListDefault(key string, def []string) []string {
	if out := platformstrings.SplitList(os.Getenv(key), ","); len(out) > 0 {
		return out
	}
	return def
}
