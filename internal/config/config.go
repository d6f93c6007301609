// Package config loads the skill's YAML configuration with environment
// overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/alekspetrov/standup/internal/gateway"
	"github.com/alekspetrov/standup/internal/logging"
)

// Config represents the main configuration.
type Config struct {
	Gateway  *gateway.Config `yaml:"gateway"`
	Database *DatabaseConfig `yaml:"database"`
	Logging  *logging.Config `yaml:"logging"`
	GitHub   *GitHubConfig   `yaml:"github"`
	TTS      *TTSConfig      `yaml:"tts"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path     string `yaml:"path"`
	MaxConns int    `yaml:"max_conns"`
}

// GitHubConfig holds the GitHub App identity used to mint installation
// tokens. The private key stays on disk; only its path is configured.
type GitHubConfig struct {
	AppID          string `yaml:"app_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// TTSConfig holds speech-synthesis settings.
type TTSConfig struct {
	// SilenceCue is an audio fragment appended to spoken prompts while the
	// skill waits for the speaker, e.g. an <speaker audio="..."> tag.
	SilenceCue string `yaml:"silence_cue"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Gateway: &gateway.Config{
			Host: "0.0.0.0",
			Port: 8443,
		},
		Database: &DatabaseConfig{
			Path:     filepath.Join(homeDir, ".standup", "standup.db"),
			MaxConns: 4,
		},
		Logging: logging.DefaultConfig(),
		GitHub:  &GitHubConfig{},
		TTS:     &TTSConfig{},
	}
}

// Load reads the configuration file at path, fills unset sections with
// defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and paths from the environment, so deployments
// can keep them out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("STANDUP_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("GITHUB_APP_ID"); v != "" {
		c.GitHub.AppID = v
	}
	if v := os.Getenv("GITHUB_APP_KEY"); v != "" {
		c.GitHub.PrivateKeyPath = v
	}
	if v := os.Getenv("TTS_FILENAME"); v != "" {
		c.TTS.SilenceCue = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Gateway == nil || c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway: invalid port")
	}
	if (c.Gateway.CertFile == "") != (c.Gateway.KeyFile == "") {
		return fmt.Errorf("gateway: cert_file and key_file must be set together")
	}
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database: path is required")
	}
	if c.GitHub != nil && (c.GitHub.AppID == "") != (c.GitHub.PrivateKeyPath == "") {
		return fmt.Errorf("github: app_id and private_key_path must be set together")
	}
	return nil
}

// Save writes the configuration to path in YAML form.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
