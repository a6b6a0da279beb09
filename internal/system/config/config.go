// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Consent       ConsentConfig      `mapstructure:"consent"`
	Twilio        TwilioConfig       `mapstructure:"twilio"`
	Stripe        StripeConfig       `mapstructure:"stripe"`
	Resend        ResendConfig       `mapstructure:"resend"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	CORS          CORSConfig         `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	PublicURL    string        `mapstructure:"public_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GetDSN builds the MySQL DSN from the database configuration.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User, d.Password, d.Hostname, d.Port, d.Database)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConsentConfig holds consent workflow configuration
type ConsentConfig struct {
	ReoptTokenTTL   time.Duration `mapstructure:"reopt_token_ttl"`
	StopKeywords    []string      `mapstructure:"stop_keywords"`
	ReoptLinkFormat string        `mapstructure:"reopt_link_format"`
}

// GetStopKeywords returns the configured stop keyword set, falling back to
// the carrier-standard defaults.
func (c *ConsentConfig) GetStopKeywords() []string {
	if len(c.StopKeywords) > 0 {
		return c.StopKeywords
	}
	return []string{"STOP", "UNSUBSCRIBE", "CANCEL", "END", "QUIT"}
}

// GetReoptTokenTTL returns the re-opt-in token lifetime (default 7 days).
func (c *ConsentConfig) GetReoptTokenTTL() time.Duration {
	if c.ReoptTokenTTL > 0 {
		return c.ReoptTokenTTL
	}
	return 7 * 24 * time.Hour
}

// TwilioConfig holds Twilio provider configuration
type TwilioConfig struct {
	AccountSID      string        `mapstructure:"account_sid"`
	AuthToken       string        `mapstructure:"auth_token"`
	ValidateWebhook bool          `mapstructure:"validate_webhook"`
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
}

// StripeConfig holds Stripe webhook configuration
type StripeConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// ResendConfig holds Resend email provider configuration
type ResendConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	FromAddress   string        `mapstructure:"from_address"`
	SendTimeout   time.Duration `mapstructure:"send_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
}

// NotificationsConfig holds in-app notification configuration
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CORSConfig holds CORS configuration for the org-facing API
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables.
// A .env file in the working directory is applied first so local development
// can override provider credentials without touching deployment.yaml.
func Load(configPath string) (*Config, error) {
	// Best effort: absence of a .env file is the normal production case.
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CXTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("database.type", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("consent.reopt_token_ttl", 7*24*time.Hour)
	v.SetDefault("twilio.retry_attempts", 2)
	v.SetDefault("twilio.send_timeout", 10*time.Second)
	v.SetDefault("resend.retry_attempts", 2)
	v.SetDefault("resend.send_timeout", 10*time.Second)
	v.SetDefault("notifications.enabled", true)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Consent.GetReoptTokenTTL() <= 0 {
		return fmt.Errorf("reopt token TTL must be positive")
	}

	if config.Server.PublicURL == "" {
		return fmt.Errorf("server public URL is required for re-opt-in links")
	}

	return nil
}

// Get returns the loaded global configuration.
func Get() *Config {
	return globalConfig
}

// SetGlobal replaces the global configuration. Intended for tests.
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}
