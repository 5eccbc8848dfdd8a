// Package generation wires section-generation providers. The anthropic
// provider drafts sections from real source documents; the lorem
// provider produces placeholder drafts so the full workflow runs in
// development and tests without API keys.
package generation

import (
	"fmt"
	"log/slog"

	"soaforge/internal/catalog"
	"soaforge/internal/config"
	"soaforge/internal/domain/services"
	"soaforge/internal/service/generation/providers/anthropic"
	"soaforge/internal/service/generation/providers/lorem"
)

// NewClient creates the generation client named by configuration.
//
// Supported providers:
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem"     - Mock provider for development and tests (no API key)
func NewClient(cfg *config.Config, cat *catalog.Catalog, logger *slog.Logger) (services.GenerationClient, error) {
	switch cfg.GenerationProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		return anthropic.NewProvider(cfg.AnthropicAPIKey, cfg.GenerationModel, cat, logger)

	case "lorem":
		return lorem.NewProvider(cat), nil

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.GenerationProvider)
	}
}
