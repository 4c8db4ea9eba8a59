// Package config loads settings for both binaries from .env, the
// environment (MONEYTRACK_*) and an optional config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "MONEYTRACK"

type Config struct {
	Port           string
	BackendURL     string
	BackendTimeout time.Duration
	DatabaseURL    string
	ReportBucket   string
	AllowOrigins   []string
	DownloadTTL    time.Duration
	LogLevel       string
	PageLimit      int
	Frequency      string
}

var defaults = map[string]any{
	"port":            "8080",
	"backend_url":     "http://localhost:5000/api/v1/txns",
	"backend_timeout": "50s",
	"database_url":    "",
	"report_bucket":   "",
	"allow_origins":   "http://localhost:3000",
	"download_ttl":    "5m",
	"log_level":       "info",
	"page_limit":      10,
	"frequency":       "365",
}

// LoadEnv reads .env into the process environment. A missing file is not an
// error.
func LoadEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// Load builds the config. path may be empty; a set path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		BackendURL:     strings.TrimRight(v.GetString("backend_url"), "/"),
		BackendTimeout: v.GetDuration("backend_timeout"),
		DatabaseURL:    v.GetString("database_url"),
		ReportBucket:   v.GetString("report_bucket"),
		AllowOrigins:   splitList(v.GetString("allow_origins")),
		DownloadTTL:    v.GetDuration("download_ttl"),
		LogLevel:       v.GetString("log_level"),
		PageLimit:      v.GetInt("page_limit"),
		Frequency:      v.GetString("frequency"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend_url %q is not an absolute URL", c.BackendURL))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend_timeout must be positive"))
	}
	if c.PageLimit <= 0 {
		errs = append(errs, errors.New("page_limit must be positive"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
