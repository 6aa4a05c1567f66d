// Package outcome defines the result of a screening call and the Recorder
// used to persist it. The turn coordinator records exactly one outcome per
// session, at the moment the session reaches a terminal node or ends early.
package outcome

import (
	"time"

	"github.com/legalaid-go/screenline/pkg/screening"
)

// Disposition classifies how a screening ended.
type Disposition string

const (
	// DispositionProceed means the caller qualified and moves to interview.
	DispositionProceed Disposition = "proceed"
	// DispositionReferred means a rule screened the caller out.
	DispositionReferred Disposition = "referred"
	// DispositionAbandoned means the call ended before a terminal node.
	DispositionAbandoned Disposition = "abandoned"
)

// Abandonment reasons. Referral reasons live in package screening next to
// the rules that produce them. Timeout covers an exhausted silence budget;
// max retries covers repeated utterances that yielded nothing usable.
const (
	ReasonDisconnect     = "disconnect"
	ReasonTimeout        = "timeout"
	ReasonMaxRetries     = "max_retries"
	ReasonSessionTimeout = "session_timeout"
	ReasonOperatorEnd    = "operator_end"
	ReasonShutdown       = "shutdown"
)

// Speaker identifies who produced a transcript line.
type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerCaller Speaker = "caller"
)

// TranscriptEntry is one line of the call transcript.
type TranscriptEntry struct {
	At      time.Time `json:"at"`
	Speaker Speaker   `json:"speaker"`
	Node    string    `json:"node"`
	Text    string    `json:"text"`
}

// Outcome is the full record of one screening call.
type Outcome struct {
	SessionID   string
	Disposition Disposition
	// Reason is the referral or abandonment reason; empty for proceed.
	Reason string
	// FinalNode is the node the screening was on when it ended.
	FinalNode screening.Node
	// Facts snapshots everything collected, including facts never branched
	// on, such as the domestic violence and emergency flags.
	Facts *screening.Set
	// Emergency mirrors the emergency flag so the interview queue can sort
	// on it without unpacking facts.
	Emergency bool
	// DomesticViolence mirrors the domestic violence flag for the same
	// reason.
	DomesticViolence bool
	// AlternativeProviders lists the referral suggestions read to the
	// caller; empty unless the disposition is referred.
	AlternativeProviders []string
	Transcript           []TranscriptEntry
	StartedAt            time.Time
	EndedAt              time.Time
}
