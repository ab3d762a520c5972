package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("PANTRYLENS_SERVER_PORT")
		os.Unsetenv("PANTRYLENS_SERVER_ENVIRONMENT")
		os.Unsetenv("PANTRYLENS_USDA_API_KEY")
		os.Unsetenv("PANTRYLENS_USDA_BASE_URL")
		os.Unsetenv("PANTRYLENS_USDA_REQUESTS_PER_HOUR")
		os.Unsetenv("PANTRYLENS_OPENFOODFACTS_US_URL")
		os.Unsetenv("PANTRYLENS_RESOLVER_MAX_RETRIES")
		os.Unsetenv("PANTRYLENS_RESOLVER_ATTEMPT_TIMEOUT")
		os.Unsetenv("PANTRYLENS_RESOLVER_BACKOFF")
		os.Unsetenv("PANTRYLENS_FALLBACK_CATALOG_PATH")
		os.Unsetenv("PANTRYLENS_RATELIMIT_PER_IP")
		os.Unsetenv("PANTRYLENS_LOGGING_LEVEL")
		os.Unsetenv("PANTRYLENS_LOGGING_FORMAT")
	}

	// Run from an empty directory so no config.yaml or .env is picked up
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(t.TempDir())

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.USDA.APIKey != "" {
			t.Errorf("USDA.APIKey = %s, want empty", cfg.USDA.APIKey)
		}
		if cfg.USDA.BaseURL != "https://api.nal.usda.gov/fdc" {
			t.Errorf("USDA.BaseURL = %s, want https://api.nal.usda.gov/fdc", cfg.USDA.BaseURL)
		}
		if cfg.USDA.RequestsPerHour != 1000 {
			t.Errorf("USDA.RequestsPerHour = %d, want 1000", cfg.USDA.RequestsPerHour)
		}
		if cfg.OpenFoodFacts.GlobalURL != "https://world.openfoodfacts.org/api/v0/product" {
			t.Errorf("OpenFoodFacts.GlobalURL = %s", cfg.OpenFoodFacts.GlobalURL)
		}
		if cfg.Resolver.MaxRetries != 2 {
			t.Errorf("Resolver.MaxRetries = %d, want 2", cfg.Resolver.MaxRetries)
		}
		if cfg.Resolver.AttemptTimeout != time.Second {
			t.Errorf("Resolver.AttemptTimeout = %v, want 1s", cfg.Resolver.AttemptTimeout)
		}
		if cfg.Resolver.Backoff != 250*time.Millisecond {
			t.Errorf("Resolver.Backoff = %v, want 250ms", cfg.Resolver.Backoff)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
			t.Errorf("Logging = %+v, want info/json", cfg.Logging)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PANTRYLENS_SERVER_PORT", "9090")
		os.Setenv("PANTRYLENS_SERVER_ENVIRONMENT", "production")
		os.Setenv("PANTRYLENS_USDA_API_KEY", "custom-api-key")
		os.Setenv("PANTRYLENS_USDA_BASE_URL", "https://custom.api.com")
		os.Setenv("PANTRYLENS_USDA_REQUESTS_PER_HOUR", "3600")
		os.Setenv("PANTRYLENS_OPENFOODFACTS_US_URL", "https://mirror.example.com/api/v0/product")
		os.Setenv("PANTRYLENS_RESOLVER_MAX_RETRIES", "3")
		os.Setenv("PANTRYLENS_RESOLVER_ATTEMPT_TIMEOUT", "2s")
		os.Setenv("PANTRYLENS_RESOLVER_BACKOFF", "0s")
		os.Setenv("PANTRYLENS_FALLBACK_CATALOG_PATH", "/etc/pantrylens/catalog.yaml")
		os.Setenv("PANTRYLENS_RATELIMIT_PER_IP", "200")
		os.Setenv("PANTRYLENS_LOGGING_LEVEL", "debug")
		os.Setenv("PANTRYLENS_LOGGING_FORMAT", "text")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.USDA.APIKey != "custom-api-key" {
			t.Errorf("USDA.APIKey = %s, want custom-api-key", cfg.USDA.APIKey)
		}
		if cfg.USDA.BaseURL != "https://custom.api.com" {
			t.Errorf("USDA.BaseURL = %s, want https://custom.api.com", cfg.USDA.BaseURL)
		}
		if cfg.USDA.RequestsPerHour != 3600 {
			t.Errorf("USDA.RequestsPerHour = %d, want 3600", cfg.USDA.RequestsPerHour)
		}
		if cfg.OpenFoodFacts.USURL != "https://mirror.example.com/api/v0/product" {
			t.Errorf("OpenFoodFacts.USURL = %s", cfg.OpenFoodFacts.USURL)
		}
		if cfg.Resolver.MaxRetries != 3 {
			t.Errorf("Resolver.MaxRetries = %d, want 3", cfg.Resolver.MaxRetries)
		}
		if cfg.Resolver.AttemptTimeout != 2*time.Second {
			t.Errorf("Resolver.AttemptTimeout = %v, want 2s", cfg.Resolver.AttemptTimeout)
		}
		if cfg.Resolver.Backoff != 0 {
			t.Errorf("Resolver.Backoff = %v, want 0", cfg.Resolver.Backoff)
		}
		if cfg.Fallback.CatalogPath != "/etc/pantrylens/catalog.yaml" {
			t.Errorf("Fallback.CatalogPath = %s", cfg.Fallback.CatalogPath)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
			t.Errorf("Logging = %+v, want debug/text", cfg.Logging)
		}
	})

	t.Run("missing USDA key is not an error", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		if _, err := Load(); err != nil {
			t.Errorf("Load() error = %v, want nil without a USDA key", err)
		}
	})

	t.Run("fails validation for zero retries", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PANTRYLENS_RESOLVER_MAX_RETRIES", "0")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for zero retries")
		}
	})

	t.Run("fails validation for unknown log level", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PANTRYLENS_LOGGING_LEVEL", "chatty")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for unknown log level")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Create .env file
		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		// Clear any existing values
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}

		// Cleanup
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
	})

	t.Run("skips empty lines and comments", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Create .env file with various formats
		envContent := `
# This is a comment
   # This is also a comment

TEST_SKIP_1=value1

TEST_SKIP_2=value2
# TEST_COMMENTED=should_not_load
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
		os.Unsetenv("TEST_COMMENTED")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_SKIP_1") != "value1" {
			t.Errorf("TEST_SKIP_1 not loaded correctly")
		}
		if os.Getenv("TEST_SKIP_2") != "value2" {
			t.Errorf("TEST_SKIP_2 not loaded correctly")
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Set existing env var
		os.Setenv("TEST_OVERRIDE", "existing-value")

		// Create .env file that tries to override
		envContent := "TEST_OVERRIDE=new-value"
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		// Should still have original value
		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}

		os.Unsetenv("TEST_OVERRIDE")
	})
}

func validConfig() *Config {
	return &Config{
		USDA: USDAConfig{
			APIKey:  "test-key",
			BaseURL: "https://api.nal.usda.gov/fdc",
		},
		Resolver: ResolverConfig{
			MaxRetries:     2,
			AttemptTimeout: time.Second,
			Backoff:        250 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{PerIP: 60},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("accepts an empty API key", func(t *testing.T) {
		cfg := validConfig()
		cfg.USDA.APIKey = ""
		cfg.USDA.BaseURL = ""

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil when USDA is disabled", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempt timeout", func(c *Config) { c.Resolver.AttemptTimeout = 0 }},
		{"negative backoff", func(c *Config) { c.Resolver.Backoff = -time.Millisecond }},
		{"zero retries", func(c *Config) { c.Resolver.MaxRetries = 0 }},
		{"bad USDA URL with key", func(c *Config) { c.USDA.BaseURL = "not a url" }},
		{"zero per-ip limit", func(c *Config) { c.RateLimit.PerIP = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run("fails for "+tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			if err := validate(cfg); err == nil {
				t.Error("validate() error = nil, want error")
			}
		})
	}
}
