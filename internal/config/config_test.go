package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "llm:\n  default_provider: ollama\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8181 {
		t.Errorf("server defaults = %s:%d, want 127.0.0.1:8181", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.LLM.DefaultProvider != "ollama" {
		t.Errorf("default_provider = %q, want explicit value preserved", cfg.LLM.DefaultProvider)
	}
	if cfg.Chat.SystemPrompt != DefaultSystemPrompt {
		t.Error("system prompt default not applied")
	}
	if cfg.Chat.ToolTimeout != 30*time.Second {
		t.Errorf("tool timeout = %v, want 30s", cfg.Chat.ToolTimeout)
	}
	if cfg.Auth.TokenExpiry != 24*time.Hour {
		t.Errorf("token expiry = %v, want 24h", cfg.Auth.TokenExpiry)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("BREADCRUMBS_TEST_KEY", "sk-ant-secret")
	path := writeConfig(t, `
llm:
  providers:
    anthropic:
      api_key: ${BREADCRUMBS_TEST_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.LLM.Providers["anthropic"].APIKey; got != "sk-ant-secret" {
		t.Errorf("api_key = %q, want expanded env value", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}

	bad := Default()
	bad.Server.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("expected an error for an out-of-range port")
	}

	bad = Default()
	bad.Logging.Level = "verbose"
	if err := bad.Validate(); err == nil {
		t.Error("expected an error for an unknown logging level")
	}

	bad = Default()
	bad.Logging.Format = "xml"
	if err := bad.Validate(); err == nil {
		t.Error("expected an error for an unknown logging format")
	}
}

func TestProviderFallback(t *testing.T) {
	cfg := Default()
	cfg.LLM.Providers = map[string]LLMProviderConfig{
		"anthropic": {APIKey: "sk-ant-1"},
		"openai":    {APIKey: "sk-oai-1"},
	}

	name, pc, ok := cfg.Provider("")
	if !ok || name != "anthropic" || pc.APIKey != "sk-ant-1" {
		t.Errorf("Provider(\"\") = %q/%+v/%v, want the default provider", name, pc, ok)
	}

	name, pc, ok = cfg.Provider("openai")
	if !ok || name != "openai" || pc.APIKey != "sk-oai-1" {
		t.Errorf("Provider(openai) = %q/%+v/%v", name, pc, ok)
	}

	if _, _, ok := cfg.Provider("mystery"); ok {
		t.Error("unknown provider should not resolve")
	}
}
