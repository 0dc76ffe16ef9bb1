// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8080"
	DefaultPGHost         = "127.0.0.1"
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "jellyrequest"
	DefaultPGSSLMode      = "disable"
	DefaultTimeoutSeconds = 15
	DefaultSweepPattern   = "@every 24h"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log        LogConfig      `toml:"log"`
	Telegram   TelegramConfig `toml:"telegram"`
	Jellyfin   ServiceConfig  `toml:"jellyfin"`
	Jellyseerr ServiceConfig  `toml:"jellyseerr"`
	Postgres   PostgresConfig `toml:"postgres"`
	Server     ServerConfig   `toml:"server"`
	Sweep      SweepConfig    `toml:"sweep"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TelegramConfig holds the bot token and the Telegram user ids allowed to run
// admin commands.
type TelegramConfig struct {
	BotToken     string  `toml:"bot_token"`
	AdminUserIDs []int64 `toml:"admin_user_ids"`
}

// ServiceConfig holds connection parameters for one upstream HTTP service
// (Jellyfin or Jellyseerr): base URL, static API token, per-call timeout.
type ServiceConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// ServerConfig holds the operator HTTP API listen address and its static
// bearer token.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	APIToken string `toml:"api_token"`
}

// SweepConfig holds the expiry sweep schedule (robfig/cron pattern).
type SweepConfig struct {
	Pattern string `toml:"pattern"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Jellyfin: ServiceConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Jellyseerr: ServiceConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Sweep: SweepConfig{
			Pattern: DefaultSweepPattern,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
