package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full mail-service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Provider ProviderConfig `mapstructure:"provider"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	GinMode         string        `mapstructure:"gin_mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ProviderConfig points the REST client at the mail provider.
// APIURL is overridden to the mock server in development.
type ProviderConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	User     string        `mapstructure:"user"`
	PageSize int64         `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	FrontendURL  string `mapstructure:"frontend_url"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// SetDefaults registers default values on v. Every key gets one so that
// environment overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("provider.api_url", "https://gmail.googleapis.com/")
	v.SetDefault("provider.user", "me")
	v.SetDefault("provider.page_size", 20)
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.redirect_url", "http://localhost:8080/auth/google/callback")
	v.SetDefault("oauth.frontend_url", "http://localhost:3000")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 180*24*time.Hour)
	v.SetDefault("database.url", "")
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session.secret not configured")
	}
	if c.Provider.PageSize <= 0 {
		return fmt.Errorf("provider.page_size must be positive, got %d", c.Provider.PageSize)
	}
	if c.Provider.APIURL == "" {
		return errors.New("provider.api_url not configured")
	}
	return nil
}
