package outcome

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder persists a finished screening. Record is called exactly once per
// session; implementations must tolerate slow stores without blocking other
// sessions, so the caller invokes it off the session loop.
type Recorder interface {
	Record(ctx context.Context, o *Outcome) error
}

// LogRecorder writes outcomes to the structured log. It is the fallback
// recorder when no database is configured, and a handy one for tests.
type LogRecorder struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen []*Outcome
}

// NewLogRecorder returns a recorder logging through logger.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record implements Recorder.
func (r *LogRecorder) Record(_ context.Context, o *Outcome) error {
	r.mu.Lock()
	r.seen = append(r.seen, o)
	r.mu.Unlock()

	r.logger.Info("screening outcome",
		"session_id", o.SessionID,
		"disposition", string(o.Disposition),
		"reason", o.Reason,
		"final_node", o.FinalNode.String(),
		"facts", o.Facts.Len(),
		"emergency", o.Emergency,
		"turns", len(o.Transcript),
		"duration", o.EndedAt.Sub(o.StartedAt),
	)
	return nil
}

// Recorded returns a snapshot of everything recorded so far.
func (r *LogRecorder) Recorded() []*Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Outcome, len(r.seen))
	copy(out, r.seen)
	return out
}
