// Package extract turns raw caller utterances into structured screening
// facts. The Extractor interface hides the model backend; implementations
// exist for Anthropic and Gemini, plus a scripted one for tests.
package extract

import (
	"context"

	"github.com/legalaid-go/screenline/pkg/screening"
)

// Request carries one utterance plus the conversational context the model
// needs to extract facts from it.
type Request struct {
	// Node is the screening step whose question the caller is answering.
	// Extraction still accepts facts for other steps; callers volunteer
	// information out of order all the time.
	Node screening.Node
	// Utterance is the transcribed caller speech.
	Utterance string
	// Known summarizes facts already established, so the model can resolve
	// references like "same as before" and avoid re-extracting.
	Known map[screening.FactName]string
}

// Extractor extracts typed fact values from a caller utterance.
// Implementations must respect ctx: the turn coordinator enforces a
// per-extraction deadline and treats a timeout as an empty extraction.
type Extractor interface {
	Extract(ctx context.Context, req Request) ([]screening.Value, error)
}
