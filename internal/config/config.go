package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Upload configuration
	Upload UploadConfig

	// LLM provider configuration
	LLM LLMConfig

	// CORS configuration
	CORS CORSConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Host         string
	Env          string
	SecretKey    string
	AllowedHosts []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL                   string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// UploadConfig holds CSV upload constraints and file storage location
type UploadConfig struct {
	MaxSize int64
	Dir     string
}

// LLMConfig holds LLM provider configuration. An empty APIKey is a
// valid state: insight generation degrades gracefully instead of
// blocking startup.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/csv-analyzer/")

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set default values
	setDefaults()

	// Enable environment variable override
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicitly bind environment variables for nested structures
	bindEnvVars()

	// Unmarshal configuration
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.allowedhosts", []string{"localhost", "127.0.0.1"})

	// Database defaults
	viper.SetDefault("database.url", "sqlite://csv_analyzer.db")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconnections", 5)
	viper.SetDefault("database.connectionmaxlifetime", "5m")

	// Upload defaults
	viper.SetDefault("upload.maxsize", 10*1024*1024) // 10 MiB
	viper.SetDefault("upload.dir", "csv_uploads")

	// LLM defaults (OpenRouter free-tier model)
	viper.SetDefault("llm.baseurl", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.model", "stepfun/step-3.5-flash:free")
	viper.SetDefault("llm.requesttimeout", "60s")
	viper.SetDefault("llm.healthtimeout", "15s")

	// CORS defaults
	viper.SetDefault("cors.allowedorigins", []string{"http://localhost:3000"})
	viper.SetDefault("cors.allowedmethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"})
	viper.SetDefault("cors.allowedheaders", []string{"Content-Type", "Authorization", "X-Requested-With"})
	viper.SetDefault("cors.allowcredentials", true)

	// Log defaults
	viper.SetDefault("log.level", "debug")
	viper.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(cfg *Config) error {
	// Server validation
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Server.SecretKey == "" && !cfg.IsDevelopment() {
		return fmt.Errorf("secret key is required in non-development environments")
	}

	// Database validation
	if cfg.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	// Upload validation
	if cfg.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload max size must be positive")
	}
	if cfg.Upload.Dir == "" {
		return fmt.Errorf("upload directory is required")
	}

	// LLM validation: the API key is optional, but the endpoint and
	// model must be present for the degraded-mode messaging to make sense.
	if cfg.LLM.BaseURL == "" {
		return fmt.Errorf("LLM base URL is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("LLM model is required")
	}
	if cfg.LLM.RequestTimeout <= 0 {
		return fmt.Errorf("LLM request timeout must be positive")
	}
	if cfg.LLM.HealthTimeout <= 0 {
		return fmt.Errorf("LLM health timeout must be positive")
	}

	return nil
}

// bindEnvVars explicitly binds environment variables to config keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.env", "SERVER_ENV", "ENV")
	viper.BindEnv("server.secretkey", "SECRET_KEY")
	viper.BindEnv("server.allowedhosts", "ALLOWED_HOSTS")

	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.maxconnections", "DATABASE_MAX_CONNECTIONS")
	viper.BindEnv("database.maxidleconnections", "DATABASE_MAX_IDLE_CONNECTIONS")
	viper.BindEnv("database.connectionmaxlifetime", "DATABASE_CONNECTION_MAX_LIFETIME")

	// Upload
	viper.BindEnv("upload.maxsize", "UPLOAD_MAX_SIZE")
	viper.BindEnv("upload.dir", "UPLOAD_DIR")

	// LLM
	viper.BindEnv("llm.apikey", "OPENROUTER_API_KEY")
	viper.BindEnv("llm.baseurl", "OPENROUTER_BASE_URL")
	viper.BindEnv("llm.model", "OPENROUTER_MODEL")
	viper.BindEnv("llm.requesttimeout", "LLM_REQUEST_TIMEOUT")
	viper.BindEnv("llm.healthtimeout", "LLM_HEALTH_TIMEOUT")

	// CORS
	viper.BindEnv("cors.allowedorigins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("cors.allowedmethods", "CORS_ALLOWED_METHODS")
	viper.BindEnv("cors.allowedheaders", "CORS_ALLOWED_HEADERS")
	viper.BindEnv("cors.allowcredentials", "CORS_ALLOW_CREDENTIALS")

	// Log
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("log.format", "LOG_FORMAT")
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.Server.Env == "test"
}
