package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration, read once at startup.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Notifier NotifierConfig
	Verifier VerifierConfig
	Compat   CompatConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
	LogLevel       string
}

// DatabaseConfig configures the PostgreSQL pool. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the Redis client used by the redis notifier.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the Kafka producer used by the kafka notifier.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ClientID          string
	Partitions        int32
	ReplicationFactor int16
}

// Notifier backends.
const (
	NotifierKafka = "kafka"
	NotifierRedis = "redis"
	NotifierLog   = "log"
)

// NotifierConfig selects and sizes the real-time notification channel.
type NotifierConfig struct {
	Backend      string
	Channel      string
	BufferSize   int
	PublishLimit time.Duration
}

// VerifierConfig configures the external verification service client. DID,
// EncryptionPrivateKey and AuthToken seed the default verifier credential when
// the store has none.
type VerifierConfig struct {
	BaseURL              string
	DID                  string
	EncryptionPrivateKey string
	AuthToken            string
	Timeout              time.Duration
	FailureThreshold     int
	SuccessThreshold     int
	Cooldown             time.Duration
}

// CompatConfig toggles behaviour kept only for old holder apps.
type CompatConfig struct {
	// OriginalRawDeclination makes the unversioned generation publish the raw
	// decrypted declination instead of persisting it.
	OriginalRawDeclination bool
}

// FromEnv builds a Config from PRESENTATION_* environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:           envString("PRESENTATION_ADDR", ":8080"),
			RequestTimeout: envDuration("PRESENTATION_REQUEST_TIMEOUT", 30*time.Second),
			LogLevel:       envString("PRESENTATION_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("PRESENTATION_DATABASE_URL"),
			MaxOpenConns:    envInt("PRESENTATION_DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("PRESENTATION_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("PRESENTATION_DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     envBool("PRESENTATION_DATABASE_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("PRESENTATION_REDIS_URL"),
			PoolSize:     envInt("PRESENTATION_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PRESENTATION_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("PRESENTATION_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PRESENTATION_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PRESENTATION_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           envList("PRESENTATION_KAFKA_BROKERS"),
			Topic:             envString("PRESENTATION_KAFKA_TOPIC", "presentations"),
			ClientID:          envString("PRESENTATION_KAFKA_CLIENT_ID", "vp-gateway"),
			Partitions:        int32(envInt("PRESENTATION_KAFKA_PARTITIONS", 3)),
			ReplicationFactor: int16(envInt("PRESENTATION_KAFKA_REPLICATION_FACTOR", 1)),
		},
		Notifier: NotifierConfig{
			Backend:      envString("PRESENTATION_NOTIFIER", NotifierLog),
			Channel:      envString("PRESENTATION_NOTIFIER_CHANNEL", "presentation"),
			BufferSize:   envInt("PRESENTATION_NOTIFIER_BUFFER", 256),
			PublishLimit: envDuration("PRESENTATION_NOTIFIER_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Verifier: VerifierConfig{
			BaseURL:              envString("PRESENTATION_VERIFIER_URL", "http://localhost:3000"),
			DID:                  os.Getenv("PRESENTATION_VERIFIER_DID"),
			EncryptionPrivateKey: os.Getenv("PRESENTATION_VERIFIER_PRIVATE_KEY"),
			AuthToken:            os.Getenv("PRESENTATION_VERIFIER_AUTH_TOKEN"),
			Timeout:              envDuration("PRESENTATION_VERIFIER_TIMEOUT", 15*time.Second),
			FailureThreshold:     envInt("PRESENTATION_VERIFIER_FAILURE_THRESHOLD", 5),
			SuccessThreshold:     envInt("PRESENTATION_VERIFIER_SUCCESS_THRESHOLD", 2),
			Cooldown:             envDuration("PRESENTATION_VERIFIER_COOLDOWN", 30*time.Second),
		},
		Compat: CompatConfig{
			OriginalRawDeclination: envBool("PRESENTATION_COMPAT_ORIGINAL_RAW_DECLINATION", false),
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
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
