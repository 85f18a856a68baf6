package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Match    MatchConfig    `koanf:"match"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`
	Environment  string        `koanf:"environment"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
}

// AuthConfig holds token settings. LoginRateLimit is the number of login
// attempts allowed per client IP in LoginRateWindow; 0 disables the limit.
type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	TokenTTL        time.Duration `koanf:"token_ttl"`
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// MatchConfig tunes discovery. OverFetchFactor is how many candidates are
// pulled per requested result.
type MatchConfig struct {
	DefaultLimit    int           `koanf:"default_limit"`
	MaxLimit        int           `koanf:"max_limit"`
	OverFetchFactor int           `koanf:"over_fetch_factor"`
	Workers         int           `koanf:"workers"`
	LoaderWait      time.Duration `koanf:"loader_wait"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// envPrefix marks environment variables read into the config tree.
const envPrefix = "FRNDR_"

// configPathEnvVar overrides the config file location.
const configPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/frndr/config.yaml"}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			CORSOrigins: []string{
				"http://localhost:5173", "http://127.0.0.1:5173",
				"http://localhost:3001", "http://127.0.0.1:3001",
			},
			Environment: "development",
		},
		Database: DatabaseConfig{
			URL:             "user=admin password=password dbname=frndr sslmode=disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    5 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:       "your_secret_key_please_change_in_production",
			TokenTTL:        24 * time.Hour,
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Match: MatchConfig{
			DefaultLimit:    20,
			MaxLimit:        100,
			OverFetchFactor: 2,
			Workers:         1,
			LoaderWait:      2 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// legacyEnv maps the older unprefixed variables onto config keys.
// FRNDR_* variables win over these.
var legacyEnv = map[string]string{
	"DATABASE_URL": "database.url",
	"JWT_SECRET":   "auth.jwt_secret",
	"GO_ENV":       "server.environment",
}

// loadConfig layers defaults, an optional YAML file and the environment.
func loadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	for name, key := range legacyEnv {
		if v := os.Getenv(name); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("set %s: %w", key, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey turns FRNDR_MATCH_DEFAULT_LIMIT into match.default_limit.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + rest
}

func findConfigFile() string {
	if p := os.Getenv(configPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitList turns a comma separated string (as env vars deliver it) into a slice.
func splitList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("server.addr is required")
	case c.Database.URL == "":
		return fmt.Errorf("database.url is required")
	case c.Database.QueryTimeout <= 0:
		return fmt.Errorf("database.query_timeout must be positive")
	case c.Auth.JWTSecret == "":
		return fmt.Errorf("auth.jwt_secret is required")
	case c.Auth.TokenTTL <= 0:
		return fmt.Errorf("auth.token_ttl must be positive")
	case c.Auth.LoginRateLimit < 0:
		return fmt.Errorf("auth.login_rate_limit must not be negative")
	case c.Auth.LoginRateLimit > 0 && c.Auth.LoginRateWindow <= 0:
		return fmt.Errorf("auth.login_rate_window must be positive when login_rate_limit is set")
	case c.Match.DefaultLimit <= 0:
		return fmt.Errorf("match.default_limit must be positive")
	case c.Match.MaxLimit < c.Match.DefaultLimit:
		return fmt.Errorf("match.max_limit (%d) is below match.default_limit (%d)", c.Match.MaxLimit, c.Match.DefaultLimit)
	case c.Match.OverFetchFactor < 1:
		return fmt.Errorf("match.over_fetch_factor must be at least 1")
	case c.Match.Workers < 1:
		return fmt.Errorf("match.workers must be at least 1")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// isDevelopment mirrors the old GO_ENV check: empty counts as development.
func (c *Config) isDevelopment() bool {
	return c.Server.Environment == "" || c.Server.Environment == "development"
}
