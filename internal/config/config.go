// Package config loads and validates watcher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Fetch modes selecting the page fetcher implementation.
const (
	FetchModeHeadless = "headless"
	FetchModePlain    = "plain"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	ProductURL          string         `mapstructure:"product_url"`
	StoreCookie         CookieConfig   `mapstructure:"store_cookie"`
	PollIntervalSeconds int            `mapstructure:"poll_interval_seconds"`
	MaxFailures         int            `mapstructure:"max_failures"`
	HeartbeatHours      int            `mapstructure:"heartbeat_hours"`
	Fetch               FetchConfig    `mapstructure:"fetch"`
	Pushover            PushoverConfig `mapstructure:"pushover"`
	Email               EmailConfig    `mapstructure:"email"`
	Log                 LogConfig      `mapstructure:"log"`
	Server              ServerConfig   `mapstructure:"server"`
}

// CookieConfig names the store-location session cookie set before each
// fetch. Both fields empty disables the cookie entirely.
type CookieConfig struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

// FetchConfig selects and tunes the page fetcher.
type FetchConfig struct {
	Mode              string `mapstructure:"mode"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
	UserAgent         string `mapstructure:"user_agent"`
}

// PushoverConfig holds push channel credentials. The channel disables
// itself when either field is empty.
type PushoverConfig struct {
	Token string `mapstructure:"token"`
	User  string `mapstructure:"user"`
}

// EmailConfig holds SMTP submission settings. The channel disables
// itself unless user, password and at least one recipient are set.
type EmailConfig struct {
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Recipients string `mapstructure:"recipients"`
	SMTPHost   string `mapstructure:"smtp_host"`
	SMTPPort   int    `mapstructure:"smtp_port"`
}

// LogConfig controls zap output.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// ServerConfig controls the optional status/metrics HTTP listener.
// Port 0 disables it.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("STOCKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Empty defaults keep AutomaticEnv keys visible to Unmarshal.
	v.SetDefault("product_url", "")
	v.SetDefault("store_cookie.name", "")
	v.SetDefault("store_cookie.value", "")
	v.SetDefault("poll_interval_seconds", 60)
	v.SetDefault("max_failures", 3)
	v.SetDefault("heartbeat_hours", 24)
	v.SetDefault("fetch.mode", FetchModeHeadless)
	v.SetDefault("fetch.nav_timeout_seconds", 45)
	v.SetDefault("fetch.user_agent", "stockwatch/1.0 (+https://github.com/stocksmart/stockwatch)")
	v.SetDefault("pushover.token", "")
	v.SetDefault("pushover.user", "")
	v.SetDefault("email.user", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.recipients", "")
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("server.port", 0)
}

// Validate enforces required values and reasonable limits. A missing
// product URL is the only unrecoverable startup error in the service.
func (c Config) Validate() error {
	if c.ProductURL == "" {
		return fmt.Errorf("product_url is required")
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be > 0")
	}
	if c.MaxFailures <= 0 {
		return fmt.Errorf("max_failures must be > 0")
	}
	if c.HeartbeatHours <= 0 {
		return fmt.Errorf("heartbeat_hours must be > 0")
	}
	if c.Fetch.Mode != FetchModeHeadless && c.Fetch.Mode != FetchModePlain {
		return fmt.Errorf("fetch.mode must be %q or %q", FetchModeHeadless, FetchModePlain)
	}
	if c.Fetch.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.nav_timeout_seconds must be > 0")
	}
	if c.Email.SMTPPort <= 0 {
		return fmt.Errorf("email.smtp_port must be > 0")
	}
	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must be >= 0")
	}
	return nil
}

// PollInterval returns the configured poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// HeartbeatInterval returns the configured heartbeat interval as a duration.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatHours) * time.Hour
}

// NavTimeout returns the fetch navigation/request timeout as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Fetch.NavTimeoutSeconds) * time.Second
}

// RecipientList splits the comma-separated recipients value, dropping
// empty entries.
func (c EmailConfig) RecipientList() []string {
	var out []string
	for _, entry := range strings.Split(c.Recipients, ",") {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
