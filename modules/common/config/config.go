package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config - holds every environment variable the server reads
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Gemini API
	GeminiAPIKey string
	GeminiModel  string

	// Replicate API
	ReplicateAPIToken     string
	ReplicateModelVersion string
	ReplicatePollInterval time.Duration
	ReplicateMaxAttempts  int

	// Server
	Port string
}

var globalConfig *Config

// LoadConfig - load environment variables
func LoadConfig() (*Config, error) {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	// Redis UseTLS parsing
	useTLS := true // default
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	// poll interval parsing (seconds)
	pollInterval := 3 * time.Second // default
	if intervalStr := os.Getenv("REPLICATE_POLL_INTERVAL_SECONDS"); intervalStr != "" {
		if parsed, err := strconv.Atoi(intervalStr); err == nil && parsed > 0 {
			pollInterval = time.Duration(parsed) * time.Second
		}
	}

	// max poll attempts parsing
	maxAttempts := 100 // default
	if attemptsStr := os.Getenv("REPLICATE_MAX_ATTEMPTS"); attemptsStr != "" {
		if parsed, err := strconv.Atoi(attemptsStr); err == nil && parsed > 0 {
			maxAttempts = parsed
		}
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Gemini API
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		// Replicate API
		ReplicateAPIToken:     getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateModelVersion: getEnv("REPLICATE_MODEL_VERSION", "6cccace56f579a06294257df73f5283051484ebcc76309a35dcd91f962b21a96"),
		ReplicatePollInterval: pollInterval,
		ReplicateMaxAttempts:  maxAttempts,

		// Server
		Port: getEnv("PORT", "8080"),
	}

	// required variable check
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Gemini: %s", globalConfig.GeminiModel)
	log.Printf("   Replicate: version %s (poll %v, max %d attempts)",
		truncateVersion(globalConfig.ReplicateModelVersion), globalConfig.ReplicatePollInterval, globalConfig.ReplicateMaxAttempts)

	return globalConfig, nil
}

// GetConfig - fetch the loaded configuration
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// validate - required environment variables
func (c *Config) validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.ReplicateAPIToken == "" {
		return fmt.Errorf("REPLICATE_API_TOKEN is required")
	}
	return nil
}

// getEnv - read an environment variable with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRedisAddr - build the Redis connection string
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func truncateVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}
