// Package app holds the confsync application wiring: configuration loading
// and target deployment connection. Configuration is assembled once at
// process start and handed to the transport client explicitly.
package app

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stackmill/confsync/internal/config"
	"github.com/stackmill/confsync/internal/transport"
	"github.com/stackmill/confsync/pkg/errors"
)

// Config holds the application configuration loaded from flags, environment
// variables, .env files, and the environment preset file.
type Config struct {
	// Deployment selection
	Environment      string
	EnvironmentsFile string

	// Direct deployment settings (override the preset)
	URL      string
	APIKey   string
	Username string
	Password string

	// Snapshot staging
	Dir string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied by the caller on top of this)
// 2. Environment variables (CONFSYNC_*)
// 3. .env files
// 4. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.SetEnvPrefix("CONFSYNC")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	return &Config{
		Environment:      viper.GetString("environment"),
		EnvironmentsFile: viper.GetString("environments_file"),
		URL:              viper.GetString("url"),
		APIKey:           viper.GetString("api_key"),
		Username:         viper.GetString("username"),
		Password:         viper.GetString("password"),
		Dir:              viper.GetString("dir"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

// Merge overlays non-empty flag values onto the loaded configuration so
// flags take precedence over environment variables and presets.
func (c *Config) Merge(other Config) {
	if other.Environment != "" {
		c.Environment = other.Environment
	}
	if other.EnvironmentsFile != "" {
		c.EnvironmentsFile = other.EnvironmentsFile
	}
	if other.URL != "" {
		c.URL = other.URL
	}
	if other.APIKey != "" {
		c.APIKey = other.APIKey
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.Dir != "" {
		c.Dir = other.Dir
	}
}

// Deployment resolves the effective deployment settings: the named preset,
// when one is selected, overlaid with any direct settings.
func (c *Config) Deployment() (config.Environment, error) {
	env := config.Environment{
		URL:      c.URL,
		APIKey:   c.APIKey,
		Username: c.Username,
		Password: c.Password,
	}

	if c.Environment != "" {
		file := c.EnvironmentsFile
		if file == "" {
			file = config.DefaultEnvironmentsFile
		}
		envs, err := config.LoadEnvironments(file)
		if err != nil {
			return config.Environment{}, err
		}
		preset, err := envs.Get(c.Environment)
		if err != nil {
			return config.Environment{}, err
		}

		if env.URL == "" {
			env.URL = preset.URL
		}
		if env.APIKey == "" {
			env.APIKey = preset.APIKey
		}
		if env.Username == "" {
			env.Username = preset.Username
		}
		if env.Password == "" {
			env.Password = preset.Password
		}
	}

	if env.URL == "" {
		return config.Environment{}, errors.NewConfigError("deployment",
			"no deployment URL configured (use --url, CONFSYNC_URL, or an environment preset)", nil)
	}
	return env, nil
}

// Connect resolves the deployment and returns an authenticated transport
// client for it. An API key takes precedence; otherwise a username/password
// pair is exchanged for a session token. Missing credentials are a setup
// error.
func (c *Config) Connect(ctx context.Context) (*transport.Client, error) {
	env, err := c.Deployment()
	if err != nil {
		return nil, err
	}

	var auth transport.Authenticator
	switch {
	case env.APIKey != "":
		auth = &transport.APIKeyAuth{Key: env.APIKey}
	case env.Username != "" && env.Password != "":
		token, err := transport.Login(ctx, nil, env.URL, env.Username, env.Password)
		if err != nil {
			return nil, err
		}
		auth = &transport.BearerAuth{Token: token}
	default:
		return nil, errors.NewConfigError("deployment",
			"no credentials configured for "+env.URL, errors.ErrCredentialsRequired)
	}

	return transport.New(env.URL, auth), nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
