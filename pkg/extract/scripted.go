package extract

import (
	"context"
	"strings"
	"sync"

	"github.com/legalaid-go/screenline/pkg/screening"
)

// Scripted is a deterministic Extractor for tests and local development:
// utterances map verbatim (case-insensitively) to fact values. Unmatched
// utterances extract nothing.
type Scripted struct {
	mu     sync.Mutex
	script map[string][]screening.Value
	err    error
	delay  func(ctx context.Context) error
	calls  int
}

// NewScripted builds a scripted extractor.
func NewScripted() *Scripted {
	return &Scripted{script: make(map[string][]screening.Value)}
}

// On registers the values to return for an utterance.
func (s *Scripted) On(utterance string, values ...screening.Value) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[strings.ToLower(strings.TrimSpace(utterance))] = values
	return s
}

// Fail makes every subsequent Extract return err.
func (s *Scripted) Fail(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

// Block makes Extract wait on fn before answering, so tests can exercise
// extraction deadlines.
func (s *Scripted) Block(fn func(ctx context.Context) error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = fn
	return s
}

// Calls reports how many extractions ran.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Extract implements Extractor.
func (s *Scripted) Extract(ctx context.Context, req Request) ([]screening.Value, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	delay := s.delay
	values := s.script[strings.ToLower(strings.TrimSpace(req.Utterance))]
	s.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return nil, derr
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]screening.Value, len(values))
	copy(out, values)
	return out, nil
}
