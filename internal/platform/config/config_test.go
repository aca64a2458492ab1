package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"COMPLIANCEHUB_ADDR", "DATABASE_URL", "KAFKA_BROKERS", "DEADLINE_WINDOW_DAYS", "DOCUMENT_ALLOWED_CONTENT_TYPES"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Scanner.WindowDays)
	assert.Contains(t, cfg.Documents.AllowedContentTypes, "application/pdf")
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("COMPLIANCEHUB_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("DEADLINE_SCAN_INTERVAL", "15m")
	t.Setenv("LOCK_ATTEMPTS", "not-a-number")
	t.Setenv("BLOB_USE_SSL", "true")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Scanner.Interval)
	assert.Equal(t, 20, cfg.Lock.Attempts, "unparseable values fall back to the default")
	assert.True(t, cfg.Blob.UseSSL)
}
