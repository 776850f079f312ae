// Package config resolves the scraper's settings from, in increasing
// priority: piazza.json5, piazza.local.json5, the environment (optionally
// seeded from .env), and finally command line flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/titanous/json5"
)

const (
	DefaultFile = "piazza.json5"

	EnvAccount  = "PIAZZA_ACCOUNT"
	EnvPassword = "PIAZZA_PASSWORD"
	EnvBaseURL  = "PIAZZA_BASE_URL"
)

type Elasticsearch struct {
	Hosts []string `json:"hosts"`
	Index string   `json:"index"`
	Type  string   `json:"type"`
}

type Config struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	BaseURL   string   `json:"base_url"`
	Timeout   string   `json:"timeout"`
	CourseIDs []string `json:"course_ids"`

	StartID  int    `json:"start_id"`
	EndID    int    `json:"end_id"`
	DataFile string `json:"data_file"`
	Database string `json:"database"`

	Elasticsearch Elasticsearch `json:"elasticsearch"`
}

// RequestTimeout parses Timeout. An empty value yields def, "0" disables the bound.
func (c Config) RequestTimeout(def time.Duration) (time.Duration, error) {
	if c.Timeout == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadFile merges <name>.<ext> with <name>.local.<ext>, the local file
// winning. Missing files are not an error.
func ReadFile(name string) (Config, error) {
	var out Config

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
	}

	prefix, ext := splitExt(filepath.Base(name))
	localPath := filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
	localFile, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override Config
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, fmt.Errorf("%s: %w", localPath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		logrus.WithField("local", localPath).Info("merging config with local overrides")
	}
	return out, nil
}

// Load reads the config files, loads .env when present, and lets the
// environment override credentials and the base url.
func Load(name string) (Config, error) {
	cfg, err := ReadFile(name)
	if err != nil {
		logrus.WithError(err).Error("config.ReadFile failed")
		return cfg, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("godotenv.Load failed")
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAccount); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
}
