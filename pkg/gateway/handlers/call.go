package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/legalaid-go/screenline/pkg/extract"
	"github.com/legalaid-go/screenline/pkg/gateway/config"
	"github.com/legalaid-go/screenline/pkg/gateway/mw"
	"github.com/legalaid-go/screenline/pkg/gateway/protocol"
	"github.com/legalaid-go/screenline/pkg/outcome"
	"github.com/legalaid-go/screenline/pkg/screening"
	"github.com/legalaid-go/screenline/pkg/sessions"
	"github.com/legalaid-go/screenline/pkg/turn"
)

// CallHandler handles /v1/call websocket screenings. Each connection runs
// one screening session: hello handshake, caller events in, prompts out,
// and a final outcome frame before close.
type CallHandler struct {
	Config    config.Config
	Logger    *slog.Logger
	Sessions  *sessions.Manager
	Machine   *screening.Machine
	Extractor extract.Extractor
	Recorder  outcome.Recorder
}

func (h CallHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, apiError{
			Code: "method_not_allowed", Message: "method not allowed", RequestID: reqID,
		})
		return
	}
	if h.Sessions != nil && h.Sessions.Draining() {
		writeAPIError(w, http.StatusServiceUnavailable, apiError{
			Code: "draining", Message: "server is draining", RequestID: reqID,
		})
		return
	}
	if !h.originAllowed(r) {
		writeAPIError(w, http.StatusForbidden, apiError{
			Code: "forbidden", Message: "origin is not allowed", Param: "Origin", RequestID: reqID,
		})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.MaxJSONMessageBytes > 0 {
		conn.SetReadLimit(h.Config.MaxJSONMessageBytes)
	}

	handshakeTimeout := h.Config.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 5 * time.Second
	}
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	messageType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		h.closeWithError(conn, "bad_request", "failed to read hello", "")
		return
	}
	if messageType != websocket.TextMessage {
		h.closeWithError(conn, "bad_request", "first frame must be hello", "")
		return
	}

	decoded, err := protocol.DecodeClientMessage(firstFrame)
	if err != nil {
		var de *protocol.DecodeError
		if errors.As(err, &de) {
			h.closeWithError(conn, de.Code, de.Message, de.Param)
		} else {
			h.closeWithError(conn, "bad_request", "invalid hello frame", "")
		}
		return
	}
	hello, ok := decoded.(protocol.ClientHello)
	if !ok {
		h.closeWithError(conn, "bad_request", "first frame must be hello", "")
		return
	}

	sessionID := strings.TrimSpace(hello.SessionID)
	if sessionID == "" {
		sessionID = "call_" + uuid.NewString()
	}

	tr := &wsTransport{conn: conn, writeTimeout: h.Config.WSWriteTimeout}

	// A junk ANI from the bridge is not fatal; the caller is asked for
	// their number either way.
	if raw := strings.TrimSpace(hello.CallerNumber); raw != "" {
		if _, ok := screening.NormalizePhone(raw); !ok {
			_ = tr.writeJSON(protocol.ServerWarning{
				Type: "warning", Code: "invalid_caller_number",
				Message: "caller_number is not a valid NANP number; ignoring",
			})
		}
	}

	events := make(chan turn.Event, 16)
	capture := &captureRecorder{inner: h.Recorder}

	coord, err := turn.New(turn.Dependencies{
		SessionID: sessionID,
		Logger:    h.Logger,
		Machine:   h.Machine,
		Extractor: h.Extractor,
		Recorder:  capture,
		Transport: tr,
		Events:    events,
		Config: turn.Config{
			SilenceTimeout:     h.Config.SilenceTimeout,
			MaxRetries:         h.Config.MaxRetries,
			ExtractTimeout:     h.Config.ExtractTimeout,
			MaxSessionDuration: h.Config.MaxSessionDuration,
			RecordTimeout:      h.Config.RecordTimeout,
		},
	})
	if err != nil {
		h.closeWithError(conn, "internal", "failed to initialize screening session", "")
		return
	}

	unregister := func() {}
	if h.Sessions != nil {
		unregister, err = h.Sessions.Register(sessionID, sessions.Handle{
			End: coord.End,
			Warn: func(code, message string) error {
				return tr.writeJSON(protocol.ServerWarning{Type: "warning", Code: code, Message: message})
			},
		})
		if err != nil {
			switch {
			case errors.Is(err, sessions.ErrDuplicateSession):
				h.closeWithError(conn, "duplicate_session", "session id already active", "session_id")
			case errors.Is(err, sessions.ErrDraining):
				h.closeWithError(conn, "draining", "server is draining", "")
			default:
				h.closeWithError(conn, "internal", "failed to register session", "")
			}
			return
		}
	}
	defer unregister()

	if err := tr.writeJSON(protocol.ServerHelloAck{
		Type:            "hello_ack",
		ProtocolVersion: protocol.ProtocolVersion1,
		SessionID:       sessionID,
	}); err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	done := make(chan struct{})
	defer close(done)

	go h.readPump(conn, tr, events, done)
	if h.Config.WSPingInterval > 0 {
		go h.pingLoop(tr, done)
	}

	// Session end is driven by the coordinator (terminal node, retries,
	// timeouts) or by the manager via coord.End; the handler context only
	// has to outlive the call.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := coord.Run(ctx); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("screening session ended with error",
				"session_id", sessionID, "request_id", reqID, "error", err)
		}
	}

	if o := capture.last(); o != nil {
		_ = tr.writeJSON(protocol.ServerOutcome{
			Type:                 "outcome",
			SessionID:            sessionID,
			Disposition:          string(o.Disposition),
			Reason:               o.Reason,
			AlternativeProviders: o.AlternativeProviders,
		})
	}
	_ = tr.writeControl(websocket.FormatCloseMessage(websocket.CloseNormalClosure, "screening complete"))
}

// readPump turns inbound frames into coordinator events. Closing the events
// channel is how a disconnect or bye reaches the coordinator as a hangup.
func (h CallHandler) readPump(conn *websocket.Conn, tr *wsTransport, events chan<- turn.Event, done <-chan struct{}) {
	defer close(events)
	for {
		if h.Config.WSReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(h.Config.WSReadTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		decoded, err := protocol.DecodeClientMessage(data)
		if err != nil {
			var de *protocol.DecodeError
			if errors.As(err, &de) {
				_ = tr.writeJSON(protocol.ServerError{Type: "error", Code: de.Code, Message: de.Message, Param: de.Param})
			}
			continue
		}

		var ev turn.Event
		switch msg := decoded.(type) {
		case protocol.ClientUtterance:
			ev = turn.Utterance{Text: msg.Text}
		case protocol.ClientBargeIn:
			ev = turn.BargeIn{}
		case protocol.ClientBye:
			return
		case protocol.ClientHello:
			_ = tr.writeJSON(protocol.ServerError{Type: "error", Code: "bad_request", Message: "hello is only valid as the first frame", Param: "type"})
			continue
		default:
			continue
		}

		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

func (h CallHandler) pingLoop(tr *wsTransport, done <-chan struct{}) {
	ticker := time.NewTicker(h.Config.WSPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := tr.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h CallHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

func (h CallHandler) closeWithError(conn *websocket.Conn, code, message, param string) {
	_ = conn.WriteJSON(protocol.ServerError{Type: "error", Code: code, Message: message, Param: param})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), time.Now().Add(2*time.Second))
}

// wsTransport serializes all writes to one websocket connection. It is the
// coordinator's Transport: prompts and cancels go out as JSON frames.
type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (t *wsTransport) writeJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}
	return t.conn.WriteJSON(v)
}

func (t *wsTransport) writeControl(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteControl(websocket.CloseMessage, payload, time.Now().Add(2*time.Second))
}

func (t *wsTransport) ping() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(2*time.Second))
}

func (t *wsTransport) EmitPrompt(_ context.Context, p turn.Prompt) error {
	return t.writeJSON(protocol.ServerPrompt{
		Type:     "prompt",
		PromptID: p.ID,
		Node:     p.Node.String(),
		Text:     p.Text,
		Reprompt: p.Reprompt,
	})
}

func (t *wsTransport) CancelPrompt(id string) error {
	return t.writeJSON(protocol.ServerPromptCancel{Type: "prompt_cancel", PromptID: id})
}

// captureRecorder keeps the outcome around after delegating to the real
// recorder, so the handler can report it to the client before closing.
type captureRecorder struct {
	inner outcome.Recorder
	mu    sync.Mutex
	o     *outcome.Outcome
}

func (r *captureRecorder) Record(ctx context.Context, o *outcome.Outcome) error {
	r.mu.Lock()
	r.o = o
	r.mu.Unlock()
	if r.inner == nil {
		return nil
	}
	return r.inner.Record(ctx, o)
}

func (r *captureRecorder) last() *outcome.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.o
}
