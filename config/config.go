package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pantrylens/backend/internal/logging"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	USDA          USDAConfig          `mapstructure:"usda"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	Resolver      ResolverConfig      `mapstructure:"resolver"`
	Fallback      FallbackConfig      `mapstructure:"fallback"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// USDAConfig holds USDA API configuration. An empty APIKey disables the source.
type USDAConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	RequestsPerHour int    `mapstructure:"requests_per_hour"`
}

// OpenFoodFactsConfig holds the product database mirrors
type OpenFoodFactsConfig struct {
	GlobalURL string `mapstructure:"global_url"`
	USURL     string `mapstructure:"us_url"`
	UKURL     string `mapstructure:"uk_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// ResolverConfig is the retry policy applied to every source
type ResolverConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	Backoff        time.Duration `mapstructure:"backoff"`
}

// FallbackConfig points at an optional replacement for the built-in catalog
type FallbackConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LoggingConfig selects log level and output format
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pantrylens/")

	// Environment variable settings: PANTRYLENS_USDA_API_KEY -> usda.api_key
	v.SetEnvPrefix("PANTRYLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// USDA defaults; api_key needs a default so the env var is picked up
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("usda.requests_per_hour", 1000)

	// Open Food Facts mirrors
	v.SetDefault("openfoodfacts.global_url", "https://world.openfoodfacts.org/api/v0/product")
	v.SetDefault("openfoodfacts.us_url", "https://us.openfoodfacts.org/api/v0/product")
	v.SetDefault("openfoodfacts.uk_url", "https://uk.openfoodfacts.org/api/v0/product")
	v.SetDefault("openfoodfacts.user_agent", "PantryLens/1.0 (barcode resolver)")

	// Resolver retry policy
	v.SetDefault("resolver.max_retries", 2)
	v.SetDefault("resolver.attempt_timeout", "1s")
	v.SetDefault("resolver.backoff", "250ms")

	v.SetDefault("fallback.catalog_path", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logging.FormatJSON)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Resolver.MaxRetries < 1 {
		return fmt.Errorf("resolver max_retries must be at least 1, got: %d", config.Resolver.MaxRetries)
	}

	if config.Resolver.AttemptTimeout <= 0 {
		return fmt.Errorf("resolver attempt_timeout must be positive, got: %s", config.Resolver.AttemptTimeout)
	}

	if config.Resolver.Backoff < 0 {
		return fmt.Errorf("resolver backoff must not be negative, got: %s", config.Resolver.Backoff)
	}

	if config.USDA.APIKey != "" {
		if _, err := url.ParseRequestURI(config.USDA.BaseURL); err != nil {
			return fmt.Errorf("USDA base URL is invalid: %q", config.USDA.BaseURL)
		}
	}

	if config.RateLimit.PerIP < 1 {
		return fmt.Errorf("ratelimit per_ip must be at least 1, got: %d", config.RateLimit.PerIP)
	}

	if !logging.ValidLevel(config.Logging.Level) {
		return fmt.Errorf("logging level must be one of debug, info, warn, error, got: %s", config.Logging.Level)
	}

	if f := config.Logging.Format; f != logging.FormatJSON && f != logging.FormatText {
		return fmt.Errorf("logging format must be 'json' or 'text', got: %s", f)
	}

	return nil
}

// loadEnvFile loads a .env file from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}
