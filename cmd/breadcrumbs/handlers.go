// handlers.go contains the command implementations.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
	"github.com/haasonsaas/breadcrumbs/internal/chat/gateways"
	"github.com/haasonsaas/breadcrumbs/internal/config"
	"github.com/haasonsaas/breadcrumbs/internal/observability"
	"github.com/haasonsaas/breadcrumbs/internal/secrets"
	"github.com/haasonsaas/breadcrumbs/internal/server"
	"github.com/haasonsaas/breadcrumbs/internal/tools"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// loadConfig reads the config file, falling back to built-in defaults
// when the default path does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(errors.Unwrap(err)) && path == defaultConfigName {
			return config.Default(), nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// buildGateway constructs the configured model gateway. API keys come
// from the config first, then from the credential store.
func buildGateway(cfg *config.Config, providerName string) (chat.Gateway, error) {
	name, pc, _ := cfg.Provider(providerName)

	apiKey := pc.APIKey
	if apiKey == "" && name != "ollama" {
		dir, err := secrets.DefaultDir()
		if err == nil {
			if store, err := secrets.Open(dir); err == nil {
				if key, err := store.Get(name); err == nil {
					apiKey = key
				}
			}
		}
	}

	switch name {
	case "anthropic":
		return gateways.NewAnthropic(gateways.AnthropicConfig{
			APIKey:  apiKey,
			BaseURL: pc.BaseURL,
			Model:   pc.DefaultModel,
		})
	case "openai":
		return gateways.NewOpenAI(gateways.OpenAIConfig{
			APIKey:  apiKey,
			BaseURL: pc.BaseURL,
			Model:   pc.DefaultModel,
		})
	case "ollama":
		model := pc.DefaultModel
		if model == "" {
			model = "llama3.2"
		}
		return gateways.NewOllama(gateways.OllamaConfig{
			BaseURL: pc.BaseURL,
			Model:   model,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func buildRegistry(cfg *config.Config) *chat.Registry {
	registry := chat.NewRegistry()
	tools.RegisterDefaults(registry, tools.Options{
		Disabled:          cfg.Tools.Disabled,
		NetcheckEndpoints: cfg.Tools.NetcheckEndpoints,
	})
	return registry
}

func chatOptions(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) chat.Options {
	return chat.Options{
		SystemPrompt:      cfg.Chat.SystemPrompt,
		ToolTimeout:       cfg.Chat.ToolTimeout,
		ValidateArguments: cfg.Chat.ValidateArguments,
		Logger:            logger,
		Metrics:           metrics,
	}
}

// runServe starts the HTTP server and blocks until shutdown.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, debug)

	gateway, err := buildGateway(cfg, "")
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	var jwtService *server.JWTService
	if cfg.Auth.JWTSecret != "" {
		jwtService = server.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	}

	srv := server.New(server.Options{
		Gateway:     gateway,
		Registry:    buildRegistry(cfg),
		ChatOptions: chatOptions(cfg, logger, metrics),
		Auth:        server.NewAuthenticator(cfg.Auth.APIKeys, jwtService),
		Logger:      logger,
		Metrics:     metrics,
		Version:     version,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return srv.ListenAndServe(ctx, addr)
}

// runChat drives an interactive REPL over the orchestrator.
func runChat(ctx context.Context, configPath, provider string, noTools bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, false)

	gateway, err := buildGateway(cfg, provider)
	if err != nil {
		return err
	}

	registry := chat.NewRegistry()
	if !noTools {
		registry = buildRegistry(cfg)
	}

	orch := chat.New(gateway, registry, chatOptions(cfg, logger, nil))

	fmt.Printf("Breadcrumbs %s (%s, %d tools). /quit to exit.\n", version, gateway.Name(), registry.Len())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if err := orch.Clear(); err != nil {
				fmt.Printf("cannot clear: %v\n", err)
				continue
			}
			fmt.Println("conversation cleared")
			continue
		case "/tools":
			for _, d := range registry.Descriptors() {
				fmt.Printf("  %-15s %s\n", d.Name, d.Description)
			}
			continue
		}

		before := len(orch.Displayable())
		if err := orch.Submit(ctx, line); err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		renderTurn(orch.Displayable()[before:])
	}
}

// renderTurn prints the messages a turn appended, collapsing tool
// episodes into a one-line summary plus the final answer.
func renderTurn(appended []models.Message) {
	for _, group := range chat.GroupTurns(appended) {
		switch group.Kind {
		case chat.GroupToolUsage:
			fmt.Printf("  [tools: %s]\n", strings.Join(group.ToolNames(), ", "))
			if group.Response != nil {
				fmt.Println(group.Response.Content)
			}
		case chat.GroupRegular:
			if group.Message.Role == models.RoleAssistant {
				fmt.Println(group.Message.Content)
			}
		}
	}
}

// runToolsList prints the registered tools with their schemas.
func runToolsList(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	registry := buildRegistry(cfg)

	for _, d := range registry.Descriptors() {
		fmt.Printf("%s\n  %s\n  schema: %s\n\n", d.Name, d.Description, string(d.Schema))
	}
	return nil
}

// runKeysSet prompts for an API key with echo disabled and stores it.
func runKeysSet(provider string) error {
	fmt.Printf("API key for %s: ", provider)
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}

	dir, err := secrets.DefaultDir()
	if err != nil {
		return err
	}
	store, err := secrets.Open(dir)
	if err != nil {
		return err
	}
	if err := store.Set(provider, strings.TrimSpace(string(key))); err != nil {
		return err
	}
	fmt.Printf("stored key for %s\n", provider)
	return nil
}

func runKeysDelete(provider string) error {
	dir, err := secrets.DefaultDir()
	if err != nil {
		return err
	}
	store, err := secrets.Open(dir)
	if err != nil {
		return err
	}
	if err := store.Delete(provider); err != nil {
		return err
	}
	fmt.Printf("removed key for %s\n", provider)
	return nil
}

func runKeysList() error {
	dir, err := secrets.DefaultDir()
	if err != nil {
		return err
	}
	store, err := secrets.Open(dir)
	if err != nil {
		return err
	}
	providers := store.Providers()
	if len(providers) == 0 {
		fmt.Println("no stored keys")
		return nil
	}
	for _, p := range providers {
		fmt.Println(p)
	}
	return nil
}

// runToken issues a signed remote-access JWT.
func runToken(configPath, subject string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	token, err := server.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry).Generate(subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
