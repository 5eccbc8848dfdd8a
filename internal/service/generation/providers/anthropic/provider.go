// Package anthropic drafts advice sections with Claude. One request
// covers the whole template set (or a filtered subset for
// regeneration); the model returns a JSON array of sections that is
// parsed leniently so one malformed section never sinks the rest.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/services"
)

const maxOutputTokens = 16384

// Provider implements the GenerationClient interface for Anthropic
// (Claude) models.
type Provider struct {
	client  *anthropic.Client
	model   string
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey, model string, cat *catalog.Catalog, logger *slog.Logger) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if !strings.HasPrefix(model, "claude-") {
		return nil, fmt.Errorf("model '%s' is not supported by Anthropic provider", model)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client:  &client,
		model:   model,
		catalog: cat,
		logger:  logger,
	}, nil
}

var _ services.GenerationClient = (*Provider)(nil)

// Generate drafts the requested sections from the source documents.
func (p *Provider) Generate(ctx context.Context, projectID string, docs []services.SourceDocument, sectionFilter []string) ([]services.GeneratedSection, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no source documents to generate from")
	}

	templates := p.requestedTemplates(sectionFilter)
	if len(templates) == 0 {
		return nil, fmt.Errorf("no known section templates in filter %v", sectionFilter)
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(templates, docs))),
		},
	}

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	sections, parseErrs := parseSections(text.String(), docs, p.catalog)
	for _, perr := range parseErrs {
		p.logger.Warn("dropped malformed generated section",
			"project_id", projectID, "error", perr)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("model returned no parseable sections")
	}

	p.logger.Info("generated sections",
		"project_id", projectID,
		"requested", len(templates),
		"produced", len(sections),
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens,
	)
	return sections, nil
}

func (p *Provider) requestedTemplates(filter []string) []catalog.Template {
	if len(filter) == 0 {
		return p.catalog.All()
	}
	var templates []catalog.Template
	for _, key := range filter {
		if tpl, ok := p.catalog.Get(key); ok {
			templates = append(templates, tpl)
		}
	}
	return templates
}
