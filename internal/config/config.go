package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// ErrMissingMongoURI is returned by Validate when no database connection string is configured.
var ErrMissingMongoURI = errors.New("MONGO_URI is not set")

// ErrMissingJWTSecret is returned by Validate when no token signing key is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Config holds application configuration values sourced from environment variables.
type Config struct {
	Port        string
	MongoURI    string
	MongoDB     string
	ServiceName string
	// NodeID distinguishes replicas in generated job numbers (0-1023).
	NodeID int

	JWTSecret string
	JWTExpiry time.Duration

	CORSOrigins []string

	InventoryMode    string
	InventoryTimeout time.Duration
	OdooURL          string
	OdooDB           string
	OdooUsername     string
	OdooAPIKey       string

	EventsBroker   string
	EventsURL      string
	EventsExchange string

	RedisURL          string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	TraceExporter string
	OTLPEndpoint  string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file, then environment variables, and produces a Config
// with defaults suitable for local development.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("No .env file loaded")
	}

	return Config{
		Port:        getEnv("PORT", "5000"),
		MongoURI:    getEnv("MONGO_URI", ""),
		MongoDB:     getEnv("MONGO_DB", "autoserve"),
		ServiceName: getEnv("SERVICE_NAME", "autoserve"),
		NodeID:      getInt("NODE_ID", 1),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: getDuration("JWT_EXPIRY", 24*time.Hour),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		InventoryMode:    strings.ToLower(getEnv("INVENTORY_API_MODE", "mock")),
		InventoryTimeout: getDuration("INVENTORY_TIMEOUT", 10*time.Second),
		OdooURL:          strings.TrimRight(getEnv("ODOO_URL", ""), "/"),
		OdooDB:           getEnv("ODOO_DB", ""),
		OdooUsername:     getEnv("ODOO_USERNAME", ""),
		OdooAPIKey:       getEnv("ODOO_API_KEY", ""),

		EventsBroker:   strings.ToLower(getEnv("EVENTS_BROKER", "none")),
		EventsURL:      getEnv("EVENTS_URL", ""),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "autoserve.events"),

		RedisURL:          getEnv("REDIS_URL", ""),
		RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 20),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", time.Minute),

		TraceExporter: strings.ToLower(getEnv("OTEL_EXPORTER", "none")),
		OTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks the settings the process cannot start without.
func (c Config) Validate() error {
	if c.MongoURI == "" {
		return ErrMissingMongoURI
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// ConfigureLogging applies LogLevel and LogFormat to the standard logrus logger.
func (c Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("log_level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": val}).Warn("Invalid integer, using default")
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": val}).Warn("Invalid duration, using default")
		return fallback
	}
	return d
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
