package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "csvdeck.yaml"

type Config struct {
	DataDir      string    `yaml:"data_dir"`
	PublicDir    string    `yaml:"public_dir"`
	ManifestName string    `yaml:"manifest_name"`
	DataPrefix   string    `yaml:"data_prefix"`
	BasePath     string    `yaml:"base_path"`
	Source       string    `yaml:"source"`
	Listen       string    `yaml:"listen"`
	PageSizes    []int     `yaml:"page_sizes"`
	Log          LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	SeqURL string `yaml:"seq_url"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		PublicDir:    "public",
		ManifestName: "data-manifest.json",
		DataPrefix:   "data",
		BasePath:     "/",
		Listen:       "127.0.0.1:5173",
		PageSizes:    []int{10, 25, 50, 100},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of Default, applies env overrides and validates.
// A missing file at DefaultPath is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv("CSVDECK_BASE_PATH"); ok {
		c.BasePath = v
	}
	if v := os.Getenv("CSVDECK_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("CSVDECK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("CSVDECK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CSVDECK_SEQ_URL"); v != "" {
		c.Log.SeqURL = v
	}
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.PublicDir == "" {
		return errors.New("public_dir is required")
	}
	if c.ManifestName == "" || strings.ContainsAny(c.ManifestName, `/\`) {
		return fmt.Errorf("manifest_name %q must be a plain file name", c.ManifestName)
	}
	if strings.ContainsAny(c.BasePath, "?#") {
		return fmt.Errorf("base_path %q must not contain a query or fragment", c.BasePath)
	}
	if len(c.PageSizes) == 0 {
		return errors.New("at least one page size is required")
	}
	for i, size := range c.PageSizes {
		if size <= 0 {
			return fmt.Errorf("page size %d must be positive", size)
		}
		if i > 0 && size <= c.PageSizes[i-1] {
			return errors.New("page_sizes must be strictly ascending")
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// ManifestPath is where the manifest builder writes.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.PublicDir, c.ManifestName)
}

// SourceOrDefault is the location the browser reads the static site from.
func (c *Config) SourceOrDefault() string {
	if c.Source != "" {
		return c.Source
	}
	return c.PublicDir
}

// NormalizeBasePath makes sure the base path starts and ends with a slash.
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
