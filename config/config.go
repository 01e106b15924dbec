package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the Apps Script deployment that serves the candidate data.
const DefaultEndpoint = "https://script.google.com/macros/s/AKfycby6lGMlTJJRCGdS-aLn9fvGit007kYTcADgdRELnjFT6sfikmbKrXANHwv109bLZNG0OA/exec"

const (
	DefaultSnapshotFile = "candidates.json"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
)

type Config struct {
	Endpoint     string        `yaml:"endpoint"`
	SnapshotFile string        `yaml:"snapshot_file"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRedirects int           `yaml:"max_redirects"`
	UserAgent    string        `yaml:"user_agent"`
	MetricsFile  string        `yaml:"metrics_file"`
	Slack        Slack         `yaml:"slack"`
}

type Slack struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// Enabled reports whether change notifications should be posted.
func (s Slack) Enabled() bool {
	return s.Token != "" && s.Channel != ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Endpoint:     DefaultEndpoint,
		SnapshotFile: DefaultSnapshotFile,
		Timeout:      DefaultTimeout,
		MaxRedirects: DefaultMaxRedirects,
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(filePath string) (Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	// Validate config
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOptional is LoadConfig, except that a missing file yields Default().
func LoadOptional(filePath string) (Config, bool, error) {
	cfg, err := LoadConfig(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return Config{}, false, err
	}
	return cfg, true, nil
}

// Resolve makes relative file paths absolute against baseDir.
func (c Config) Resolve(baseDir string) Config {
	if c.SnapshotFile != "" && !filepath.IsAbs(c.SnapshotFile) {
		c.SnapshotFile = filepath.Join(baseDir, c.SnapshotFile)
	}
	if c.MetricsFile != "" && !filepath.IsAbs(c.MetricsFile) {
		c.MetricsFile = filepath.Join(baseDir, c.MetricsFile)
	}
	return c
}

func validateConfig(cfg Config) error {
	if cfg.Endpoint == "" {
		return errors.New("endpoint cannot be empty")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("endpoint must be an http or https URL: " + cfg.Endpoint)
	}
	if u.Host == "" {
		return errors.New("endpoint has no host: " + cfg.Endpoint)
	}
	if cfg.SnapshotFile == "" {
		return errors.New("snapshot_file cannot be empty")
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if cfg.MaxRedirects < 0 {
		return errors.New("max_redirects cannot be negative")
	}
	if (cfg.Slack.Token == "") != (cfg.Slack.Channel == "") {
		return errors.New("slack token and channel must be set together")
	}
	return nil
}
