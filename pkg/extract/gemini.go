package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/legalaid-go/screenline/pkg/screening"
)

// GeminiExtractor extracts facts with the Gemini API.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGemini builds an extractor for the given Gemini model.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract implements Extractor.
func (e *GeminiExtractor) Extract(ctx context.Context, req Request) ([]screening.Value, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(buildPrompt(req)), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini extraction: %w", err)
	}
	return parseResponse(resp.Text())
}
