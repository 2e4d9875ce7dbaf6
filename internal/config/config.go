package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"xoso/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when XOSO_CONFIG is not set and the file exists.
const DefaultFile = "xoso.yaml"

type Config struct {
	Port           string   `yaml:"port"`
	DataDir        string   `yaml:"data_dir"`
	Variant        string   `yaml:"variant"`
	Toasts         bool     `yaml:"toasts"`
	LogFile        string   `yaml:"log_file"`
	Verbose        bool     `yaml:"verbose"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func defaults() *Config {
	return &Config{
		Port:           "8080",
		DataDir:        "data",
		Variant:        models.VariantStandard,
		Toasts:         true,
		AllowedOrigins: []string{"*"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (or
// XOSO_CONFIG, or DefaultFile when present), then .env and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("XOSO_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.Port = getEnv("XOSO_PORT", cfg.Port)
	cfg.DataDir = getEnv("XOSO_DATA_DIR", cfg.DataDir)
	cfg.Variant = getEnv("XOSO_VARIANT", cfg.Variant)
	cfg.LogFile = getEnv("XOSO_LOG_FILE", cfg.LogFile)
	cfg.Toasts = getEnvBool("XOSO_TOASTS", cfg.Toasts)
	cfg.Verbose = getEnvBool("XOSO_VERBOSE", cfg.Verbose)
	if origins := os.Getenv("XOSO_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if _, err := c.Layout(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	return nil
}

// Layout returns the tier layout for the configured variant.
func (c *Config) Layout() (models.Layout, error) {
	return models.NewLayout(c.Variant)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
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
