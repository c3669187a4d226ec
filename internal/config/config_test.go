package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validConfig(env string) *Config {
	return &Config{
		Env:                      env,
		DBSSLMode:                "require",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		Port:                     "8080",
		DBDriver:                 "postgres",
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "redis://localhost:6379",
		AIProvider:               "gemini",
		GeminiAPIKey:             "key",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig(tt.env)
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"default jwt secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }},
		{"ai flag without key", func(c *Config) {
			c.FeatureFlags = "ai_summary"
			c.GeminiAPIKey = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig("production")
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_ValidateDriverAndProvider(t *testing.T) {
	c := validConfig("development")
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = validConfig("development")
	c.AIProvider = "anthropic"
	assert.Error(t, c.Validate())
}

func TestConfig_Durations(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 7*24*time.Hour, c.AccessTokenTTL())
	assert.Equal(t, 30*24*time.Hour, c.RefreshTokenTTL())
	assert.Equal(t, time.Hour, c.PasswordResetTTL())
	assert.Equal(t, 30*time.Second, c.LocalCacheTTL())

	c = &Config{JWTAccessTTLMinutes: 15, JWTRefreshTTLHours: 2, PasswordResetMinutes: 5, LocalCacheTTLSeconds: 1}
	assert.Equal(t, 15*time.Minute, c.AccessTokenTTL())
	assert.Equal(t, 2*time.Hour, c.RefreshTokenTTL())
	assert.Equal(t, 5*time.Minute, c.PasswordResetTTL())
	assert.Equal(t, time.Second, c.LocalCacheTTL())
}

func TestConfig_AIAPIKey(t *testing.T) {
	c := &Config{AIProvider: "openai", OpenAIAPIKey: "sk-1", GeminiAPIKey: "g-1"}
	assert.Equal(t, "sk-1", c.AIAPIKey())
	c.AIProvider = "gemini"
	assert.Equal(t, "g-1", c.AIAPIKey())
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, 10080, c.JWTAccessTTLMinutes)
}
