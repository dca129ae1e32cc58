package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CatalogAPIConfig holds configuration for the Catalog API service
type CatalogAPIConfig struct {
	DatabaseDriver     string   `json:"database_driver" yaml:"database_driver"`
	DatabaseURL        string   `json:"database_url" yaml:"database_url"`
	Port               string   `json:"port" yaml:"port"`
	SeedFile           string   `json:"seed_file" yaml:"seed_file"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	Env                string   `json:"env" yaml:"env"`
	LogLevel           string   `json:"log_level" yaml:"log_level"`
}

// WebFrontendConfig holds configuration for the Web Frontend service
type WebFrontendConfig struct {
	APIURL               string `json:"api_url" yaml:"api_url"`
	Port                 string `json:"port" yaml:"port"`
	RequestTimeout       string `json:"request_timeout" yaml:"request_timeout"`
	StrictFavoriteSubmit bool   `json:"strict_favorite_submit" yaml:"strict_favorite_submit"`
	Env                  string `json:"env" yaml:"env"`
	LogLevel             string `json:"log_level" yaml:"log_level"`
}

func DefaultCatalogAPI() CatalogAPIConfig {
	return CatalogAPIConfig{
		DatabaseDriver: "sqlite3",
		DatabaseURL:    "file:data/cineteca.db?_foreign_keys=on",
		Port:           "8000",
		Env:            "development",
		LogLevel:       "info",
	}
}

func DefaultWebFrontend() WebFrontendConfig {
	return WebFrontendConfig{
		APIURL:   "http://127.0.0.1:8000",
		Port:     "8080",
		Env:      "development",
		LogLevel: "info",
	}
}

// LoadCatalogAPI starts from the defaults, applies the file named by
// CONFIG_FILE if set, then environment overrides.
func LoadCatalogAPI() (CatalogAPIConfig, error) {
	cfg := DefaultCatalogAPI()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := Load(path, &cfg); err != nil {
			return cfg, err
		}
	}
	setString(&cfg.DatabaseDriver, "DATABASE_DRIVER")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Port, "PORT")
	setString(&cfg.SeedFile, "SEED_FILE")
	setString(&cfg.Env, "ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if s := os.Getenv("CORS_ALLOWED_ORIGINS"); s != "" {
		cfg.CORSAllowedOrigins = splitList(s)
	}
	return cfg, nil
}

func LoadWebFrontend() (WebFrontendConfig, error) {
	cfg := DefaultWebFrontend()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := Load(path, &cfg); err != nil {
			return cfg, err
		}
	}
	setString(&cfg.APIURL, "CATALOG_API_URL")
	setString(&cfg.Port, "PORT")
	setString(&cfg.RequestTimeout, "REQUEST_TIMEOUT")
	setString(&cfg.Env, "ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if s := os.Getenv("STRICT_FAVORITE_SUBMIT"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return cfg, fmt.Errorf("STRICT_FAVORITE_SUBMIT: %w", err)
		}
		cfg.StrictFavoriteSubmit = v
	}
	if _, err := cfg.Timeout(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Timeout parses RequestTimeout. Empty means no timeout.
func (c WebFrontendConfig) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid request_timeout %q: must not be negative", c.RequestTimeout)
	}
	return d, nil
}

// Load loads the configuration from a file (YAML or JSON)
func Load(path string, cfg interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
		}
	} else {
		// Anything else is read as JSON
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode JSON config file %s: %w", path, err)
		}
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
