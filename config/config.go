// Package config loads the service configuration from YAML, a .env file and
// FIRETYPE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config mirrors config.yaml.
type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Artifacts struct {
		ScalerPath string `yaml:"scaler_path"`
		ModelPath  string `yaml:"model_path"`
	} `yaml:"artifacts"`
	Inference struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"inference"`
	UI struct {
		Locale      string `yaml:"locale"`
		DevMode     bool   `yaml:"dev_mode"`
		TemplateDir string `yaml:"template_dir"`
	} `yaml:"ui"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	var c Config
	c.Http.Port = 8501
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Http.MaxBodyBytes = 64 << 10
	c.Log.Level = "info"
	c.Log.File = "logs/firetype.log"
	c.Log.MaxSizeMB = 50
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.Artifacts.ScalerPath = "models/scaler.json"
	c.Artifacts.ModelPath = "models/model.json"
	c.Inference.CacheSize = 256
	c.UI.Locale = "en"
	c.UI.TemplateDir = "http/templates"
	return &c
}

// LoadDotEnv loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. Relative artifact, template and log
// paths are resolved against the directory holding the file.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		config.resolvePaths(filepath.Dir(path))
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Artifacts.ScalerPath = resolve(c.Artifacts.ScalerPath)
	c.Artifacts.ModelPath = resolve(c.Artifacts.ModelPath)
	c.UI.TemplateDir = resolve(c.UI.TemplateDir)
	c.Log.File = resolve(c.Log.File)
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("FIRETYPE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FIRETYPE_PORT: %w", err)
		}
		c.Http.Port = port
	}
	if v, ok := lookupEnv("FIRETYPE_HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FIRETYPE_HTTP_TIMEOUT: %w", err)
		}
		c.Http.Timeout = d
	}
	if v, ok := lookupEnv("FIRETYPE_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookupEnv("FIRETYPE_LOG_FILE"); ok {
		c.Log.File = v
	}
	if v, ok := lookupEnv("FIRETYPE_SCALER_PATH"); ok {
		c.Artifacts.ScalerPath = v
	}
	if v, ok := lookupEnv("FIRETYPE_MODEL_PATH"); ok {
		c.Artifacts.ModelPath = v
	}
	if v, ok := lookupEnv("FIRETYPE_CACHE_SIZE"); ok {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FIRETYPE_CACHE_SIZE: %w", err)
		}
		c.Inference.CacheSize = size
	}
	if v, ok := lookupEnv("FIRETYPE_LOCALE"); ok {
		c.UI.Locale = v
	}
	if v, ok := lookupEnv("FIRETYPE_DEV_MODE"); ok {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FIRETYPE_DEV_MODE: %w", err)
		}
		c.UI.DevMode = dev
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Http.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if c.Artifacts.ScalerPath == "" || c.Artifacts.ModelPath == "" {
		return errors.New("artifacts.scaler_path and artifacts.model_path are required")
	}
	if c.Inference.CacheSize < 0 {
		return errors.New("inference.cache_size must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.UI.DevMode && c.UI.TemplateDir == "" {
		return errors.New("ui.template_dir is required in dev mode")
	}
	return nil
}
