package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/assist"
	"github.com/spigell/career-path/internal/catalog"
	"github.com/spigell/career-path/internal/identity"
	"github.com/spigell/career-path/internal/logger"
	"github.com/spigell/career-path/internal/secrets"
)

const (
	assistLiveChat = "live-chat"
	assistAdvisor  = "advisor"
	assistNone     = "none"
)

// setup builds the logger and config shared by every command. Interactive
// commands log to stderr so that prompts own stdout.
func setup(interactive bool) (*zap.Logger, *Config) {
	build := logger.New
	if interactive {
		build = logger.NewStderr
	}

	l, err := build(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	return l, config
}

func loadCatalog(config *Config, l *zap.Logger) (*catalog.Catalog, error) {
	c, err := catalog.Load(config.Catalog.File)
	if err != nil {
		return nil, err
	}

	source := config.Catalog.File
	if source == "" {
		source = "bundled"
	}
	l.Debug("catalog loaded", zap.String("source", source), zap.Int("jobs", c.Len()))
	return c, nil
}

// newVerifier returns nil when no auth secret is configured.
func newVerifier(config *Config) (*identity.Verifier, error) {
	secret, err := secrets.Optional(secrets.Source{
		Name:  "auth secret",
		Value: config.Auth.Secret,
		File:  config.Auth.SecretFile,
	})
	if err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, nil
	}
	return identity.NewVerifier(secret)
}

// loadToken returns the caller's identity token, or "" when anonymous.
func loadToken(config *Config, flagValue string) (string, error) {
	return secrets.Optional(secrets.Source{
		Name:  "api token",
		Value: flagValue,
		File:  config.API.TokenFile,
	})
}

func newHandoff(ctx context.Context, config *Config, c *catalog.Catalog, l *zap.Logger) (assist.Handoff, error) {
	mode := strings.ToLower(strings.TrimSpace(config.Assist.Mode))
	if mode == assistNone {
		return nil, nil
	}

	chat, err := assist.NewLiveChat(config.Assist.LiveChatURL, l.Named("live-chat"))
	if err != nil {
		return nil, err
	}

	switch mode {
	case "", assistLiveChat:
		return chat, nil
	case assistAdvisor:
	default:
		return nil, fmt.Errorf("unsupported assist mode: %s", config.Assist.Mode)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Assist.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set assist.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := assist.NewGenerator(ctx, apiKey, config.Assist.Gemini.Model)
	if err != nil {
		return nil, err
	}

	return assist.NewAdvisor(generator, c, chat, l.Named("advisor"))
}
