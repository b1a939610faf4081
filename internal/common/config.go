package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Backend  BackendConfig
	History  HistoryConfig
	Progress ProgressConfig
	Server   ServerConfig
}

// BackendConfig holds extraction-backend configuration
type BackendConfig struct {
	BaseURL       string
	UploadTimeout time.Duration
	StrictPayload bool
}

// HistoryConfig holds history persistence configuration
type HistoryConfig struct {
	DSN string
	Cap int
}

// ProgressConfig holds synthetic progress estimator configuration
type ProgressConfig struct {
	Step     int
	Interval time.Duration
}

// ServerConfig holds the local facade configuration
type ServerConfig struct {
	HTTPAddr string
}

// LoadConfig loads configuration from the environment, reading an optional
// .env file first.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Backend: BackendConfig{
			BaseURL:       getEnv("FIR_BACKEND_URL", ""),
			UploadTimeout: getEnvAsDuration("FIR_UPLOAD_TIMEOUT", 90*time.Second),
			StrictPayload: getEnvAsBool("FIR_STRICT_PAYLOAD", false),
		},
		History: HistoryConfig{
			DSN: getEnv("FIR_HISTORY_DSN", "file:fir_history.db"),
			Cap: getEnvAsInt("FIR_HISTORY_CAP", 20),
		},
		Progress: ProgressConfig{
			Step:     getEnvAsInt("FIR_PROGRESS_STEP", 10),
			Interval: getEnvAsDuration("FIR_PROGRESS_INTERVAL", 300*time.Millisecond),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("FIR_HTTP_ADDR", ":8090"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "FIR_BACKEND_URL is required", ErrInvalidInput)
	}
	if c.History.Cap <= 0 {
		return NewAppError("CONFIG_ERROR", "FIR_HISTORY_CAP must be positive", ErrInvalidInput)
	}
	if c.Progress.Step <= 0 || c.Progress.Interval <= 0 {
		return NewAppError("CONFIG_ERROR", "progress step and interval must be positive", ErrInvalidInput)
	}
	return nil
}
