package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Change feeds for the certificate notifier.
const (
	ChangefeedMongo    = "mongo"
	ChangefeedPostgres = "postgres"
	ChangefeedKafka    = "kafka"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Store
	StoreBackend string

	// MongoDB
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// Postgres
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Verification codes
	CodeTTL     time.Duration
	PhoneRegion string

	// Email
	SMTP SMTPConfig

	// Twilio
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	// HTTP hardening
	CORSAllowedOrigins []string
	RateLimit          RateLimitConfig
	SecurityHeaders    SecurityHeadersConfig
	MaxRequestBodySize int64

	// Certificate notifier
	Changefeed            string
	KafkaBrokers          []string
	KafkaSubmissionsTopic string
	KafkaGroupID          string

	Log LogConfig
}

// RateLimitConfig holds per-IP limits for each endpoint group.
type RateLimitConfig struct {
	Enabled bool

	IssueRequestsPerWindow int
	IssueWindowMinutes     int

	VerifyRequestsPerWindow int
	VerifyWindowMinutes     int

	CertificateRequestsPerWindow int
	CertificateWindowMinutes     int

	SubmissionRequestsPerWindow int
	SubmissionWindowMinutes     int
}

// SecurityHeadersConfig holds response security header values.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level         string
	IncludeSource bool
	File          string
	MaxSizeMB     int
	MaxAgeDays    int
	MaxBackups    int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		StoreBackend: getEnv("STORE_BACKEND", StoreMongo),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "simple_certify"),
		MongoTimeout:  getEnvDuration("MONGO_TIMEOUT", 10*time.Second),

		// Database defaults (matches podman setup: make postgres-start)
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 25432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "simple_certify"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		CodeTTL:     getEnvDuration("CODE_TTL", 10*time.Minute),
		PhoneRegion: strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimit: RateLimitConfig{
			Enabled:                      getEnvBool("RATE_LIMIT_ENABLED", true),
			IssueRequestsPerWindow:       getEnvInt("RATE_LIMIT_ISSUE_REQUESTS", 5),
			IssueWindowMinutes:           getEnvInt("RATE_LIMIT_ISSUE_WINDOW_MINUTES", 10),
			VerifyRequestsPerWindow:      getEnvInt("RATE_LIMIT_VERIFY_REQUESTS", 10),
			VerifyWindowMinutes:          getEnvInt("RATE_LIMIT_VERIFY_WINDOW_MINUTES", 10),
			CertificateRequestsPerWindow: getEnvInt("RATE_LIMIT_CERTIFICATE_REQUESTS", 20),
			CertificateWindowMinutes:     getEnvInt("RATE_LIMIT_CERTIFICATE_WINDOW_MINUTES", 1),
			SubmissionRequestsPerWindow:  getEnvInt("RATE_LIMIT_SUBMISSION_REQUESTS", 5),
			SubmissionWindowMinutes:      getEnvInt("RATE_LIMIT_SUBMISSION_WINDOW_MINUTES", 10),
		},
		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_HEADERS_CSP", "default-src 'none'; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HEADERS_HSTS_MAX_AGE", 0),
			FrameOptions:       getEnv("SECURITY_HEADERS_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: getEnv("SECURITY_HEADERS_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:      getEnv("SECURITY_HEADERS_XSS_PROTECTION", "0"),
			ReferrerPolicy:     getEnv("SECURITY_HEADERS_REFERRER_POLICY", "no-referrer"),
			PermissionsPolicy:  getEnv("SECURITY_HEADERS_PERMISSIONS_POLICY", ""),
		},
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 64*1024)),

		Changefeed:            getEnv("CHANGEFEED", ""),
		KafkaBrokers:          getEnvList("KAFKA_BROKERS", nil),
		KafkaSubmissionsTopic: getEnv("KAFKA_SUBMISSIONS_TOPIC", "submission-updates"),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "certificate-notifier"),

		Log: LogConfig{
			Level:         getEnv("LOG_LEVEL", "info"),
			IncludeSource: getEnvBool("LOG_INCLUDE_SOURCE", false),
			File:          getEnv("LOG_FILE", ""),
			MaxSizeMB:     getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxAgeDays:    getEnvInt("LOG_MAX_AGE_DAYS", 28),
			MaxBackups:    getEnvInt("LOG_MAX_BACKUPS", 5),
		},
	}

	smtpCfg, err := loadSMTP()
	if err != nil {
		return nil, err
	}
	cfg.SMTP = smtpCfg

	switch cfg.StoreBackend {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of %s, %s, %s (got %q)", StoreMongo, StorePostgres, StoreMemory, cfg.StoreBackend)
	}

	// The notifier follows the store unless told otherwise. memory is
	// accepted so the server loads with the memory store; the notifier
	// refuses it.
	if cfg.Changefeed == "" {
		cfg.Changefeed = cfg.StoreBackend
	}
	switch cfg.Changefeed {
	case ChangefeedMongo, ChangefeedPostgres, ChangefeedKafka, StoreMemory:
	default:
		return nil, fmt.Errorf("CHANGEFEED must be one of %s, %s, %s, %s (got %q)",
			ChangefeedMongo, ChangefeedPostgres, ChangefeedKafka, StoreMemory, cfg.Changefeed)
	}

	if cfg.CodeTTL <= 0 {
		return nil, fmt.Errorf("CODE_TTL must be positive")
	}

	return cfg, nil
}

// HasSMTP returns true if at least one SMTP server and a sender address are configured.
func (c *Config) HasSMTP() bool {
	return len(c.SMTP.Servers) > 0 && c.SMTP.From != ""
}

// HasTwilio returns true if Twilio SMS delivery is configured.
func (c *Config) HasTwilio() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

// PostgresURL returns the Postgres connection URL for the configured database.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
