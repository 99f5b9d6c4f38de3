package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "contratos", cfg.Storage.Bucket)
	assert.NotEmpty(t, cfg.NotificationRecipients)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestParseRecipients(t *testing.T) {
	t.Setenv("NOTIFY_RECIPIENTS", "Contrato Assinado=legal@empresa.com; Cancelado = ops@empresa.com;malformed")

	cfg := FromEnv()

	require.Len(t, cfg.NotificationRecipients, 2)
	assert.Equal(t, "legal@empresa.com", cfg.NotificationRecipients["Contrato Assinado"])
	assert.Equal(t, "ops@empresa.com", cfg.NotificationRecipients["Cancelado"])
}
