package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/legalaid-go/screenline/pkg/screening"
)

const anthropicMaxTokens = 1024

// AnthropicExtractor extracts facts with the Anthropic Messages API.
type AnthropicExtractor struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds an extractor for the given model. An empty apiKey
// falls back to the ANTHROPIC_API_KEY environment variable.
func NewAnthropic(apiKey, model string) *AnthropicExtractor {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &AnthropicExtractor{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Extract implements Extractor.
func (e *AnthropicExtractor) Extract(ctx context.Context, req Request) ([]screening.Value, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic extraction: %w", err)
	}

	var parts []string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			parts = append(parts, resp.Content[i].Text)
		}
	}
	return parseResponse(strings.Join(parts, ""))
}
