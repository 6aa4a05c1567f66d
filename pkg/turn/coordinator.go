// Package turn runs one screening call: it walks the decision tree, prompts
// the caller, hands utterances to the extractor, and records the outcome
// when the call reaches a terminal node or ends early. Each session runs its
// own coordinator on a single goroutine; all per-call state lives on the
// Run stack and is never shared.
package turn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/legalaid-go/screenline/pkg/extract"
	"github.com/legalaid-go/screenline/pkg/outcome"
	"github.com/legalaid-go/screenline/pkg/screening"
)

type Config struct {
	// SilenceTimeout is how long to wait for an utterance before reprompting.
	SilenceTimeout time.Duration
	// MaxRetries is how many unproductive attempts (silence or utterances
	// that yield no usable facts) a node tolerates before the call is
	// abandoned.
	MaxRetries int
	// ExtractTimeout bounds one extraction call; a timeout counts as an
	// empty extraction, not an error.
	ExtractTimeout time.Duration
	// MaxSessionDuration bounds the whole call.
	MaxSessionDuration time.Duration
	// RecordTimeout bounds the outcome write at the end of the call.
	RecordTimeout time.Duration
}

type Dependencies struct {
	SessionID string
	Logger    *slog.Logger
	Machine   *screening.Machine
	Extractor extract.Extractor
	Recorder  outcome.Recorder
	Transport Transport
	// Events delivers caller events. A closed channel counts as a hangup.
	Events <-chan Event
	Config Config
	Now    func() time.Time
}

// Coordinator drives one screening call.
type Coordinator struct {
	sessionID string
	logger    *slog.Logger
	machine   *screening.Machine
	extractor extract.Extractor
	recorder  outcome.Recorder
	transport Transport
	events    <-chan Event
	cfg       Config
	now       func() time.Time

	endOnce sync.Once
	endCh   chan string
}

// New validates deps and returns a coordinator ready to Run.
func New(deps Dependencies) (*Coordinator, error) {
	if deps.Machine == nil {
		return nil, fmt.Errorf("machine is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if deps.Recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if deps.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("event channel is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config.SilenceTimeout <= 0 {
		deps.Config.SilenceTimeout = 10 * time.Second
	}
	if deps.Config.MaxRetries <= 0 {
		deps.Config.MaxRetries = 3
	}
	if deps.Config.ExtractTimeout <= 0 {
		deps.Config.ExtractTimeout = 10 * time.Second
	}
	if deps.Config.MaxSessionDuration <= 0 {
		deps.Config.MaxSessionDuration = 15 * time.Minute
	}
	if deps.Config.RecordTimeout <= 0 {
		deps.Config.RecordTimeout = 5 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Coordinator{
		sessionID: deps.SessionID,
		logger:    deps.Logger,
		machine:   deps.Machine,
		extractor: deps.Extractor,
		recorder:  deps.Recorder,
		transport: deps.Transport,
		events:    deps.Events,
		cfg:       deps.Config,
		now:       deps.Now,
		endCh:     make(chan string, 1),
	}, nil
}

// End asks a running coordinator to stop and record an abandoned outcome
// with the given reason. It is safe to call from any goroutine and
// idempotent; only the first reason wins.
func (c *Coordinator) End(reason string) {
	c.endOnce.Do(func() { c.endCh <- reason })
}

type extractResult struct {
	values []screening.Value
	err    error
}

// Run executes the screening until a terminal node, an abandonment, or ctx
// cancellation. It records exactly one outcome in every case.
func (c *Coordinator) Run(ctx context.Context) error {
	node := screening.StartCollectIdentity
	facts := screening.NewSet()
	startedAt := c.now()

	var (
		transcript     []outcome.TranscriptEntry
		retries        int
		promptSeq      int
		activePromptID string
		pendingText    string
		recorded       bool
		// awaiting holds the facts the last reprompt asked the caller to
		// supply or correct; a certain answer replaces any held value for
		// them instead of contradicting it.
		awaiting []screening.FactName
	)

	sessionTimer := time.NewTimer(c.cfg.MaxSessionDuration)
	defer sessionTimer.Stop()

	var silenceTimer *time.Timer
	silenceActive := false
	stopSilence := func() {
		if silenceTimer == nil {
			return
		}
		if !silenceTimer.Stop() {
			select {
			case <-silenceTimer.C:
			default:
			}
		}
		silenceActive = false
	}
	resetSilence := func() {
		if silenceTimer == nil {
			silenceTimer = time.NewTimer(c.cfg.SilenceTimeout)
			silenceActive = true
			return
		}
		stopSilence()
		silenceTimer.Reset(c.cfg.SilenceTimeout)
		silenceActive = true
	}
	silenceCh := func() <-chan time.Time {
		if !silenceActive || silenceTimer == nil {
			return nil
		}
		return silenceTimer.C
	}

	// Each extraction writes into its own buffered channel, so a superseded
	// worker can always complete its send and exit; the loop listens only on
	// the latest channel and abandoned ones are garbage.
	var extractCh chan extractResult
	var extractCancel context.CancelFunc
	extractActive := false
	var wg sync.WaitGroup
	defer wg.Wait()
	defer func() {
		if extractCancel != nil {
			extractCancel()
		}
	}()
	resultCh := func() <-chan extractResult {
		if !extractActive {
			return nil
		}
		return extractCh
	}

	say := func(text string, reprompt bool) error {
		promptSeq++
		id := fmt.Sprintf("p_%d", promptSeq)
		p := Prompt{ID: id, Node: node, Text: text, Reprompt: reprompt}
		transcript = append(transcript, outcome.TranscriptEntry{
			At: c.now(), Speaker: outcome.SpeakerSystem, Node: node.String(), Text: text,
		})
		if err := c.transport.EmitPrompt(ctx, p); err != nil {
			return fmt.Errorf("emit prompt: %w", err)
		}
		activePromptID = id
		resetSilence()
		return nil
	}

	record := func(disp outcome.Disposition, reason string) {
		if recorded {
			return
		}
		recorded = true

		o := &outcome.Outcome{
			SessionID:   c.sessionID,
			Disposition: disp,
			Reason:      reason,
			FinalNode:   node,
			Facts:       facts.Clone(),
			Transcript:  transcript,
			StartedAt:   startedAt,
			EndedAt:     c.now(),
		}
		if v, ok := facts.Get(screening.FactEmergency); ok {
			o.Emergency = v.Bool
		}
		if v, ok := facts.Get(screening.FactDomesticViolence); ok {
			o.DomesticViolence = v.Bool
		}
		if disp == outcome.DispositionReferred {
			o.AlternativeProviders = screening.AlternativeProviders
		}

		// Recorded on a fresh context: a canceled session must still land
		// its outcome.
		rctx, cancel := context.WithTimeout(context.Background(), c.cfg.RecordTimeout)
		defer cancel()
		if err := c.recorder.Record(rctx, o); err != nil {
			c.logger.Error("record outcome", "session_id", c.sessionID, "error", err)
		}
		c.logger.Info("screening ended",
			"session_id", c.sessionID,
			"disposition", string(disp),
			"reason", reason,
			"final_node", node.String(),
		)
	}

	startExtraction := func(text string) {
		if extractCancel != nil {
			extractCancel()
		}
		ectx, cancel := context.WithTimeout(ctx, c.cfg.ExtractTimeout)
		extractCancel = cancel
		extractActive = true
		ch := make(chan extractResult, 1)
		extractCh = ch

		known := make(map[screening.FactName]string, facts.Len())
		for _, v := range facts.Values() {
			known[v.Name] = describeValue(v)
		}
		req := extract.Request{Node: node, Utterance: text, Known: known}
		wg.Add(1)
		go func() {
			defer wg.Done()
			values, err := c.extractor.Extract(ectx, req)
			ch <- extractResult{values: values, err: err}
		}()
	}

	// apply folds one extraction into the facts and advances the tree. It
	// returns true when the call is over.
	apply := func(res extractResult) (bool, error) {
		if res.err != nil {
			// A failed or timed-out extraction is an empty one; the caller
			// just gets asked again.
			c.logger.Warn("extraction failed", "session_id", c.sessionID, "node", node.String(), "error", res.err)
			res.values = nil
		}

		// Certain answers to facts we explicitly asked to be corrected
		// replace the held value rather than contradicting it.
		for _, v := range res.values {
			if v.Confidence != screening.ConfidenceCertain {
				continue
			}
			for _, name := range awaiting {
				if name == v.Name {
					facts.Forget(name)
				}
			}
		}

		contradicted := facts.Merge(res.values)
		productive := len(res.values) > 0

		if len(contradicted) > 0 {
			awaiting = contradicted
			return false, say(reconfirmText(contradicted[0]), true)
		}

		tr := c.machine.Transition(node, facts)
		for tr.Next != node && !tr.Next.Terminal() {
			node = tr.Next
			retries = 0
			tr = c.machine.Transition(node, facts)
		}
		awaiting = tr.Missing

		if tr.Next.Terminal() {
			node = tr.Next
			stopSilence()
			if err := say(closingText(node), false); err != nil {
				return true, err
			}
			if node == screening.ConductInterview {
				record(outcome.DispositionProceed, "")
			} else {
				record(outcome.DispositionReferred, tr.ReferralReason)
			}
			return true, nil
		}

		if tr.Next == node && !productive {
			retries++
			if retries >= c.cfg.MaxRetries {
				_ = say(goodbyeText(), false)
				record(outcome.DispositionAbandoned, outcome.ReasonMaxRetries)
				return true, nil
			}
		}
		return false, say(repromptText(node, tr.Missing, tr.Suggestion), true)
	}

	abandon := func(reason string, farewell bool) {
		if farewell {
			_ = say(goodbyeText(), false)
		}
		record(outcome.DispositionAbandoned, reason)
	}

	c.logger.Info("screening started", "session_id", c.sessionID)
	if err := say(node.Prompt(), false); err != nil {
		record(outcome.DispositionAbandoned, outcome.ReasonDisconnect)
		return err
	}

	events := c.events
	for {
		select {
		case <-ctx.Done():
			abandon(outcome.ReasonShutdown, false)
			return nil

		case reason := <-c.endCh:
			abandon(reason, true)
			return nil

		case <-sessionTimer.C:
			abandon(outcome.ReasonSessionTimeout, true)
			return nil

		case <-silenceCh():
			silenceActive = false
			retries++
			if retries >= c.cfg.MaxRetries {
				abandon(outcome.ReasonTimeout, true)
				return nil
			}
			if err := say(silenceText(node), true); err != nil {
				record(outcome.DispositionAbandoned, outcome.ReasonDisconnect)
				return err
			}

		case ev, ok := <-events:
			if !ok {
				abandon(outcome.ReasonDisconnect, false)
				return nil
			}
			switch e := ev.(type) {
			case Hangup:
				abandon(outcome.ReasonDisconnect, false)
				return nil

			case BargeIn:
				if activePromptID != "" {
					if err := c.transport.CancelPrompt(activePromptID); err != nil {
						c.logger.Warn("cancel prompt", "session_id", c.sessionID, "prompt_id", activePromptID, "error", err)
					}
					activePromptID = ""
				}
				// The caller is talking; give them the full window to finish.
				resetSilence()

			case Utterance:
				transcript = append(transcript, outcome.TranscriptEntry{
					At: c.now(), Speaker: outcome.SpeakerCaller, Node: node.String(), Text: e.Text,
				})
				stopSilence()
				text := e.Text
				if extractActive {
					// A follow-on utterance supersedes the in-flight
					// extraction; re-extract over the combined speech.
					text = strings.TrimSpace(pendingText + " " + e.Text)
				}
				pendingText = text
				startExtraction(text)
			}

		case res := <-resultCh():
			extractActive = false
			pendingText = ""
			if extractCancel != nil {
				extractCancel()
				extractCancel = nil
			}
			done, err := apply(res)
			if err != nil {
				record(outcome.DispositionAbandoned, outcome.ReasonDisconnect)
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// describeValue renders a fact for the extractor's known-facts context.
func describeValue(v screening.Value) string {
	switch v.Kind {
	case screening.KindText:
		return v.Text
	case screening.KindNumber:
		return fmt.Sprintf("%d", v.Number)
	case screening.KindBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return ""
	}
}
