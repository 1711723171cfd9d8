// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendNATS   = "nats"
	StoreBackendMemory = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Storage
	StoreBackend string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// CompileScope, when set, is the token scope required to compile a
	// briefing.
	CompileScope string

	// Personas
	PersonasFile    string
	CompilerPersona string

	// AI gateway and dialog
	AIRequestTimeout     time.Duration
	DialogHistoryLimit   int
	DialogFinishedPolicy string
	FinishedCacheSize    int

	// CORS
	CORSAllowedOrigins []string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	Environment string
	LogLevel    string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory, or the file named by ENV_FILE, is applied first without
// overriding variables that are already set.
func Load() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	_ = godotenv.Load(envFile)

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Storage
		StoreBackend: getEnv("STORE_BACKEND", StoreBackendNATS),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret:    getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTIssuer:    getEnv("JWT_ISSUER", ""),
		JWTAudience:  getEnv("JWT_AUDIENCE", ""),
		CompileScope: getEnv("COMPILE_SCOPE", ""),

		// Personas
		PersonasFile:    getEnv("PERSONAS_FILE", "personas.yaml"),
		CompilerPersona: getEnv("COMPILER_PERSONA", "Compilador"),

		// AI gateway and dialog
		AIRequestTimeout:     getDurationEnv("AI_REQUEST_TIMEOUT", 30*time.Second),
		DialogHistoryLimit:   getIntEnv("DIALOG_HISTORY_LIMIT", 50),
		DialogFinishedPolicy: getEnv("DIALOG_FINISHED_POLICY", "continue"),
		FinishedCacheSize:    getIntEnv("FINISHED_CACHE_SIZE", 4096),

		// CORS
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		Environment: getEnv("ENV", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
