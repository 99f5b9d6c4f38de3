package config

import (
	"os"
	"strings"
	"time"
)

// Config is the immutable process configuration, resolved once at startup so
// main stays lean and nothing reads the environment after boot.
type Config struct {
	Addr string

	DatabaseURL string
	RedisURL    string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration

	AllowedOrigin string

	Storage StorageConfig
	Kafka   KafkaConfig
	Mailer  MailerConfig

	// NotificationRecipients maps a contract status to the address that must
	// be told about it. Statuses absent from the map produce no mail.
	NotificationRecipients map[string]string

	LogLevel  string
	LogFormat string
}

// StorageConfig holds object storage (MinIO/S3-compatible) settings.
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// KafkaConfig holds event broker settings. An empty broker list disables the
// broker and the in-memory bus is used instead.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// MailerConfig holds the e-mail delivery API settings.
type MailerConfig struct {
	BaseURL     string
	APIKey      string
	SenderEmail string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:   getenv("DATABASE_URL", "postgres://localhost:5432/contratos?sslmode=disable"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getenv("JWT_ISSUER", "gerenciador-de-contratos"),
		JWTAudience:   getenv("JWT_AUDIENCE", "gerenciador-de-contratos-web"),
		TokenTTL:      getduration("TOKEN_TTL", time.Hour),
		AllowedOrigin: getenv("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		Storage: StorageConfig{
			Endpoint:      getenv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:        getenv("STORAGE_BUCKET", "contratos"),
			UseSSL:        os.Getenv("STORAGE_USE_SSL") == "true",
			PublicBaseURL: os.Getenv("STORAGE_PUBLIC_BASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:   getenv("KAFKA_TOPIC", "contract-events"),
		},
		Mailer: MailerConfig{
			BaseURL:     getenv("MAILER_BASE_URL", "https://api.brevo.com/v3"),
			APIKey:      os.Getenv("MAILER_API_KEY"),
			SenderEmail: getenv("MAILER_SENDER", "nao-responda@gerenciador-contratos.com"),
		},
		NotificationRecipients: parseRecipients(os.Getenv("NOTIFY_RECIPIENTS")),
		LogLevel:               getenv("LOG_LEVEL", "info"),
		LogFormat:              getenv("LOG_FORMAT", "text"),
	}
}

// parseRecipients parses "Status A=a@x.com;Status B=b@x.com". An empty value
// falls back to the default routing table.
func parseRecipients(raw string) map[string]string {
	if raw == "" {
		return map[string]string{
			"Documentação Validada": "financeiro@gerenciador-contratos.com",
			"Contrato Assinado":     "juridico@gerenciador-contratos.com",
			"Contrato Encerrado":    "gestao@gerenciador-contratos.com",
		}
	}
	out := make(map[string]string)
	for _, pair := range splitNonEmpty(raw, ";") {
		status, addr, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		status = strings.TrimSpace(status)
		addr = strings.TrimSpace(addr)
		if status != "" && addr != "" {
			out[status] = addr
		}
	}
	return out
}

func splitNonEmpty(raw, sep string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
