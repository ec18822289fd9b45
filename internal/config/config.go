// Package config loads service configuration from a YAML file with
// environment-variable overrides. Env always wins over file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// TrustProxyHeaders lets the rate limiter key on X-Forwarded-For.
		// Only enable behind a proxy that strips the header from clients.
		TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
		// Ed25519Seed is base64(32 bytes). Empty generates an ephemeral key.
		Ed25519Seed string `yaml:"ed25519_seed"`
	} `yaml:"jwt"`

	Auth struct {
		// AdminSecret gates POST /auth/admin/signup. Empty disables it.
		AdminSecret string `yaml:"admin_secret"`
		ResetTTL    string `yaml:"reset_ttl"`
		Password    struct {
			MinLength int `yaml:"min_length"`
		} `yaml:"password"`
	} `yaml:"auth"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Forgot  struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"forgot"`
		// Backend: memory | redis
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Email struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"email"`
}

// Load reads path (optional) and applies env overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Rate limiting is on unless the file says otherwise.
	cfg.Rate.Enabled = true

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr(&cfg.App.Env, "AUTHD_ENV")
	envStr(&cfg.Log.Level, "AUTHD_LOG_LEVEL")
	envStr(&cfg.Server.Addr, "AUTHD_ADDR")
	envBool(&cfg.Server.TrustProxyHeaders, "AUTHD_TRUST_PROXY_HEADERS")
	envStr(&cfg.Storage.Driver, "AUTHD_STORAGE_DRIVER")
	envStr(&cfg.Storage.DSN, "AUTHD_STORAGE_DSN")
	envStr(&cfg.JWT.Issuer, "AUTHD_JWT_ISSUER")
	envStr(&cfg.JWT.AccessTTL, "AUTHD_JWT_ACCESS_TTL")
	envStr(&cfg.JWT.Ed25519Seed, "AUTHD_JWT_ED25519_SEED")
	envStr(&cfg.Auth.AdminSecret, "AUTHD_ADMIN_SECRET")
	envStr(&cfg.Auth.ResetTTL, "AUTHD_RESET_TTL")
	envStr(&cfg.Rate.Backend, "AUTHD_RATE_BACKEND")
	envStr(&cfg.Rate.Redis.Addr, "AUTHD_REDIS_ADDR")
	envStr(&cfg.SMTP.Host, "AUTHD_SMTP_HOST")
	envInt(&cfg.SMTP.Port, "AUTHD_SMTP_PORT")
	envStr(&cfg.SMTP.Username, "AUTHD_SMTP_USERNAME")
	envStr(&cfg.SMTP.Password, "AUTHD_SMTP_PASSWORD")
	envStr(&cfg.SMTP.From, "AUTHD_SMTP_FROM")
	envStr(&cfg.Email.BaseURL, "AUTHD_EMAIL_BASE_URL")
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "authd"
	}
	if cfg.JWT.AccessTTL == "" {
		cfg.JWT.AccessTTL = "24h"
	}
	if cfg.Auth.ResetTTL == "" {
		cfg.Auth.ResetTTL = "1h"
	}
	if cfg.Auth.Password.MinLength == 0 {
		cfg.Auth.Password.MinLength = 8
	}
	if cfg.Rate.Forgot.Limit == 0 {
		cfg.Rate.Forgot.Limit = 3
	}
	if cfg.Rate.Forgot.Window == "" {
		cfg.Rate.Forgot.Window = "15m"
	}
	if cfg.Rate.Backend == "" {
		cfg.Rate.Backend = "memory"
	}
	if cfg.Email.Timeout == "" {
		cfg.Email.Timeout = "15s"
	}
}

// Duration parses a duration field, falling back to def on empty/garbage.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
