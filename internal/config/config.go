// Package config loads the Breadcrumbs configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for Breadcrumbs.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	LLM     LLMConfig     `yaml:"llm"`
	Chat    ChatConfig    `yaml:"chat"`
	Tools   ToolsConfig   `yaml:"tools"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	// APIKeys are static bearer keys accepted by the HTTP API.
	APIKeys []string `yaml:"api_keys"`

	// JWTSecret enables JWT bearer tokens when set.
	JWTSecret string `yaml:"jwt_secret"`

	TokenExpiry time.Duration `yaml:"token_expiry"`
}

type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`
}

type LLMProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
}

type ChatConfig struct {
	SystemPrompt      string        `yaml:"system_prompt"`
	ToolTimeout       time.Duration `yaml:"tool_timeout"`
	ValidateArguments bool          `yaml:"validate_arguments"`
}

type ToolsConfig struct {
	Disabled          []string `yaml:"disabled"`
	NetcheckEndpoints []string `yaml:"netcheck_endpoints"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultSystemPrompt seeds conversations when the config does not set one.
const DefaultSystemPrompt = "You are Breadcrumbs, a desktop diagnostic assistant. " +
	"Use the available tools to inspect the user's machine before answering " +
	"questions about its state, and keep answers short and concrete."

// Load reads the configuration file, expands environment variable
// references, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8181
	}
	if cfg.Auth.TokenExpiry == 0 {
		cfg.Auth.TokenExpiry = 24 * time.Hour
	}
	if cfg.LLM.DefaultProvider == "" {
		cfg.LLM.DefaultProvider = "anthropic"
	}
	if cfg.Chat.SystemPrompt == "" {
		cfg.Chat.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Chat.ToolTimeout == 0 {
		cfg.Chat.ToolTimeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks cross-field constraints that defaults cannot fix.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.LLM.DefaultProvider == "" {
		return errors.New("llm default_provider is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// Provider returns the named provider config, falling back to the
// default provider when name is empty.
func (c *Config) Provider(name string) (string, LLMProviderConfig, bool) {
	if name == "" {
		name = c.LLM.DefaultProvider
	}
	pc, ok := c.LLM.Providers[name]
	return name, pc, ok
}
