package turn

import (
	"context"

	"github.com/legalaid-go/screenline/pkg/screening"
)

// Event is an inbound signal from the call transport. Exactly one of the
// concrete types below is delivered per event.
type Event interface{ isEvent() }

// Utterance is a finalized caller transcript.
type Utterance struct {
	Text string
}

// BargeIn signals the caller started speaking over an active prompt. The
// coordinator cancels the prompt playback; the caller's words arrive later
// as a normal Utterance.
type BargeIn struct{}

// Hangup signals the caller or transport ended the call.
type Hangup struct{}

func (Utterance) isEvent() {}
func (BargeIn) isEvent()   {}
func (Hangup) isEvent()    {}

// Prompt is one system utterance to play to the caller.
type Prompt struct {
	// ID identifies the prompt for cancellation.
	ID string
	// Node is the screening step the prompt belongs to.
	Node screening.Node
	// Text is what to say.
	Text string
	// Reprompt is true when this repeats or refines an earlier question.
	Reprompt bool
}

// Transport plays prompts to the caller. EmitPrompt must not block on
// playback; it queues the prompt and returns. CancelPrompt stops an
// in-flight prompt on barge-in and is a no-op for finished prompts.
type Transport interface {
	EmitPrompt(ctx context.Context, p Prompt) error
	CancelPrompt(id string) error
}
