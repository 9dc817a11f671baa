package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models planwise.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	LLM struct {
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		APIKeyEnv      string `yaml:"api_key_env"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// Load reads and validates config from workspace. A missing file yields
// the defaults so the server runs out of the box.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config.llm.model is required")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("config.llm.timeout_seconds must not be negative")
	}
	return nil
}

// APIKey resolves the generative backend key from the configured
// environment variable. Empty means the backend is not configured.
func (c *Config) APIKey() string {
	env := c.LLM.APIKeyEnv
	if env == "" {
		env = "OPENROUTER_API_KEY"
	}
	return os.Getenv(env)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "planwise.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8787"
	cfg.Server.BasePath = "/v1"
	cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
	cfg.LLM.Model = "anthropic/claude-3.5-sonnet"
	cfg.LLM.APIKeyEnv = "OPENROUTER_API_KEY"
	cfg.LLM.TimeoutSeconds = 120
	return &cfg
}

// RequestTimeout returns the configured backend timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// FromYAML parses and validates config from raw YAML bytes. Fields not
// present keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}
