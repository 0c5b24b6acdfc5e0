package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers understood by the store package.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	ShutdownTimeout      time.Duration
	UpstreamTimeout      time.Duration
	RecentCallerFallback bool
	Store                StoreConfig
	Twilio               TwilioConfig
	Cloudinary           CloudinaryConfig
	Search               SearchConfig
	Log                  LogConfig
	Tracing              TracingConfig
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	MySQL         DatabaseConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// TwilioConfig holds the messaging provider account used to fetch MMS media.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
}

// CloudinaryConfig holds image hosting credentials
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// SearchConfig configures the search/answer API.
type SearchConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "patient_companion_assistant"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	maxTokens, err := strconv.Atoi(getEnv("SEARCH_MAX_TOKENS", "1024"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_MAX_TOKENS: %w", err)
	}

	sampleRate, err := strconv.ParseFloat(getEnv("TRACING_SAMPLE_RATE", "1.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TRACING_SAMPLE_RATE: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	upstreamTimeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8000"),
		Origin:               getEnv("ORIGIN", "http://localhost:3000"),
		Environment:          getEnv("APP_ENV", "development"),
		ShutdownTimeout:      shutdownTimeout,
		UpstreamTimeout:      upstreamTimeout,
		RecentCallerFallback: getEnvBool("RECENT_CALLER_FALLBACK", false),
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			MongoURI:      getEnv("MONGODB_URI", ""),
			MongoDatabase: getEnv("MONGODB_DATABASE", "patient_companion_assistant"),
			MySQL:         dbConfig,
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "patient-images"),
		},
		Search: SearchConfig{
			APIKey:    getEnv("PERPLEXITY_API_KEY", ""),
			BaseURL:   getEnv("SEARCH_BASE_URL", "https://api.perplexity.ai"),
			Model:     getEnv("SEARCH_MODEL", "sonar"),
			MaxTokens: maxTokens,
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "patient-companion"),
			Endpoint:    getEnv("OTLP_ENDPOINT", "localhost:4318"),
			SampleRate:  sampleRate,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER is %q", DriverMongo)
		}
	case DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want mongo, mysql or memory)", c.Store.Driver)
	}
	if c.Search.MaxTokens <= 0 {
		return fmt.Errorf("SEARCH_MAX_TOKENS must be positive, got %d", c.Search.MaxTokens)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
