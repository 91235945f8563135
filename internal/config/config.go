package config

import (
	"os"
	"strconv"
)

// Version is surfaced in /health and the startup log line.
const Version = "anan v2.0"

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Completion API
	DeepSeekAPIKey string
	DeepSeekAPIURL string
	Model          string
	MaxTokens      int
	// Session
	SessionSecret   string
	SessionTTLHours int
	// Optional persistent store; empty means in-memory conversations
	DatabaseURL string
	TablePrefix string
	// Persona overrides (YAML); empty means built-in defaults
	PersonaFile string
	// Log files; empty means stdout only
	LogDir string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekAPIURL: getEnv("DEEPSEEK_API_URL", "https://api.deepseek.com"),
		Model:          getEnv("MODEL", "deepseek-chat"),
		MaxTokens:      getEnvInt("MAX_TOKENS", DefaultMaxTokens),

		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 2),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getTablePrefix(env),

		PersonaFile: getEnv("PERSONA_FILE", ""),
		LogDir:      getEnv("LOG_DIR", ""),

		// Default DEBUG on outside prod
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
