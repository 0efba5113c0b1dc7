package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64

	// Site
	SiteURL   string
	OAIDomain string

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers    []string
	KafkaGroupID    string
	PIDActionsTopic string
	IndexTopic      string
	DLQTopic        string

	// Blob store
	BlobBackend     string // "fs" or "s3"
	BlobDir         string
	BlobChecksum    string // "md5" or "adler32"
	BlobS3Bucket    string
	BlobS3Endpoint  string
	BlobS3Region    string
	BlobS3AccessKey string
	BlobS3SecretKey string

	// DOI / registrar
	DOIPrefix          string
	DOIBannedPrefixes  []string
	DataCiteURL        string
	DataCiteUser       string
	DataCitePassword   string
	RegistrarTimeout   time.Duration
	RegistrarMaxRetry  int
	RegistrarRetryBase time.Duration

	// Search index
	SearchIndexURL string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string

	// Workers
	OutboxPollInterval time.Duration
	ReconcileSchedule  string
	PublishBudget      time.Duration

	// Registries
	LicenseFile   string
	CommunityFile string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 100*1024*1024)),

		SiteURL:   getEnv("SITE_URL", "https://depository.local"),
		OAIDomain: getEnv("OAI_DOMAIN", "depository.local"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "depository"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "depository123"),
		PostgresDB:       getEnv("POSTGRES_DB", "depository"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "depository"),
		PIDActionsTopic: getEnv("KAFKA_PID_ACTIONS_TOPIC", "pid-actions"),
		IndexTopic:      getEnv("KAFKA_INDEX_TOPIC", "index-actions"),
		DLQTopic:        getEnv("KAFKA_DLQ_TOPIC", "depository-dlq"),

		BlobBackend:     getEnv("BLOB_BACKEND", "fs"),
		BlobDir:         getEnv("BLOB_DIR", "/var/lib/depository/files"),
		BlobChecksum:    getEnv("BLOB_CHECKSUM", "md5"),
		BlobS3Bucket:    getEnv("BLOB_S3_BUCKET", ""),
		BlobS3Endpoint:  getEnv("BLOB_S3_ENDPOINT", ""),
		BlobS3Region:    getEnv("BLOB_S3_REGION", "us-east-1"),
		BlobS3AccessKey: getEnv("BLOB_S3_ACCESS_KEY", ""),
		BlobS3SecretKey: getEnv("BLOB_S3_SECRET_KEY", ""),

		DOIPrefix:          getEnv("DOI_PREFIX", "10.5281"),
		DOIBannedPrefixes:  getStringSliceEnv("DOI_BANNED_PREFIXES", []string{"10.5072"}),
		DataCiteURL:        getEnv("DATACITE_URL", "https://mds.datacite.org"),
		DataCiteUser:       getEnv("DATACITE_USER", ""),
		DataCitePassword:   getEnv("DATACITE_PASSWORD", ""),
		RegistrarTimeout:   getDuration("REGISTRAR_TIMEOUT", 15*time.Second),
		RegistrarMaxRetry:  getIntEnv("REGISTRAR_MAX_RETRIES", 6),
		RegistrarRetryBase: getDuration("REGISTRAR_RETRY_BASE", 30*time.Second),

		SearchIndexURL: getEnv("SEARCH_INDEX_URL", "http://localhost:9200/records"),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),

		OutboxPollInterval: getDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		ReconcileSchedule:  getEnv("RECONCILE_SCHEDULE", "*/10 * * * *"),
		PublishBudget:      getDuration("PUBLISH_BUDGET", 60*time.Second),

		LicenseFile:   getEnv("LICENSE_FILE", ""),
		CommunityFile: getEnv("COMMUNITY_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
