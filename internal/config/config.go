// Package config loads service settings: built-in defaults, then an optional
// YAML file named by PQR_CONFIG, then individual environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Port is what the server listens on; Addr turns it into ":port".
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// MaxUploadBytes bounds request bodies carrying images.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// DefaultSize is the output side in pixels when a request gives none.
	DefaultSize int `yaml:"default_size"`

	StaticDir string `yaml:"static_dir"`
	// Detector names the QR detection backend, see locate.Backends.
	Detector string `yaml:"detector"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		GinMode:        "release",
		LogLevel:       "info",
		LogFormat:      "text",
		MaxUploadBytes: 10 << 20,
		DefaultSize:    600,
		StaticDir:      "./static",
		Detector:       "zxing",
	}
}

// Load builds the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an injectable environment lookup.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("PQR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	env := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	env("PORT", &cfg.Port)
	env("GIN_MODE", &cfg.GinMode)
	env("LOG_LEVEL", &cfg.LogLevel)
	env("LOG_FORMAT", &cfg.LogFormat)
	env("STATIC_DIR", &cfg.StaticDir)
	env("DETECTOR", &cfg.Detector)

	if v := getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}
	if v := getenv("DEFAULT_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("DEFAULT_SIZE: %w", err)
		}
		cfg.DefaultSize = n
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.DefaultSize < 1 {
		return fmt.Errorf("default_size must be positive, got %d", c.DefaultSize)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for gin.
func (c Config) Addr() string {
	return ":" + c.Port
}
