package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yukikurage/event-platform-api/internal/constants"
)

const (
	defaultSessionSecret = "default-secret-key-change-me"
	defaultJWTSecret     = "default-jwt-secret-change-me"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	MongoURI      string
	MongoDatabase string

	RedisHost     string
	RedisPort     string
	SessionSecret string

	JWTSecret    string
	JWTTTL       time.Duration
	IDPPublicKey string
	IDPIssuer    string

	CORSAllowedOrigins []string
	PublicDir          string

	LogLevel  string
	LogFormat string

	OpenAIAPIKey string
}

// Load reads configuration from the environment. A .env file (or the file named by
// ENV_FILE) is loaded first when present; variables already set in the environment win.
func Load() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	_ = godotenv.Load(envFile)

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "eventuser"),
		DBPassword: getEnv("DB_PASSWORD", "eventpassword"),
		DBName:     getEnv("DB_NAME", "events"),
		DBPath:     getEnv("DB_PATH", "events.db"),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "events"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),

		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:       getDuration("JWT_TTL", constants.DefaultTokenTTL),
		IDPPublicKey: getEnv("IDP_PUBLIC_KEY", ""),
		IDPIssuer:    getEnv("IDP_ISSUER", ""),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		PublicDir:          getEnv("PUBLIC_DIR", "public"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// Validate rejects settings that are only acceptable in development.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in release mode")
	}
	if c.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be set in release mode")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
