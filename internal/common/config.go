package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Extract  ExtractConfig
	Segment  SegmentConfig
	Model    ModelConfig
	Fetch    FetchConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	RequestTimeout time.Duration
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	// MinChars is the smallest total text length an engine may produce
	// before the next engine is tried. Rejects cover-sheet-only documents
	// without penalizing legitimately short proposals.
	MinChars int
}

// SegmentConfig holds section-segmentation configuration
type SegmentConfig struct {
	// MinSectionChars gates the section map: when the non-empty section
	// values sum below it, classification uses the raw full text instead.
	// Stricter than ExtractConfig.MinChars on purpose.
	MinSectionChars int
	// PatternsPath optionally points at a JSON file overriding the
	// built-in heading patterns.
	PatternsPath string
}

// ModelConfig holds classifier configuration
type ModelConfig struct {
	// Path is the model artifact directory (weights + tokenizer config)
	// for in-process inference.
	Path string
	// Endpoint, when set, routes inference to an external model server
	// instead of loading artifacts locally.
	Endpoint  string
	MaxTokens int
	UseCPU    bool
	Timeout   time.Duration
}

// FetchConfig holds proposal-download configuration
type FetchConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			RequestTimeout: getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 60*time.Second),
		},
		Extract: ExtractConfig{
			MinChars: getEnvAsInt("EXTRACT_MIN_CHARS", 20),
		},
		Segment: SegmentConfig{
			MinSectionChars: getEnvAsInt("SEGMENT_MIN_SECTION_CHARS", 100),
			PatternsPath:    getEnv("SECTION_PATTERNS_PATH", ""),
		},
		Model: ModelConfig{
			Path:      getEnv("MODEL_PATH", ""),
			Endpoint:  getEnv("MODEL_ENDPOINT", ""),
			MaxTokens: getEnvAsInt("MODEL_MAX_TOKENS", 512),
			UseCPU:    getEnvAsBool("MODEL_USE_CPU", false),
			Timeout:   getEnvAsDuration("MODEL_TIMEOUT", 45*time.Second),
		},
		Fetch: FetchConfig{
			Timeout:  getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			MaxBytes: getEnvAsInt64("FETCH_MAX_BYTES", 25<<20),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
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
	if c.Model.Path == "" && c.Model.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "MODEL_PATH or MODEL_ENDPOINT is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Extract.MinChars <= 0 || c.Segment.MinSectionChars <= c.Extract.MinChars {
		return NewAppError("CONFIG_ERROR", "SEGMENT_MIN_SECTION_CHARS must exceed EXTRACT_MIN_CHARS", ErrInvalidInput)
	}
	return nil
}
