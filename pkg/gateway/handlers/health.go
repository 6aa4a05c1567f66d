package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/legalaid-go/screenline/pkg/gateway/config"
	"github.com/legalaid-go/screenline/pkg/sessions"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config   config.Config
	Sessions *sessions.Manager
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK             bool     `json:"ok"`
		AuthMode       string   `json:"auth_mode"`
		Draining       bool     `json:"draining"`
		ActiveSessions int      `json:"active_sessions"`
		Issues         []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.AuthMode {
	case config.AuthModeRequired, config.AuthModeOptional, config.AuthModeDisabled:
	default:
		issues = append(issues, "invalid auth_mode")
	}
	if h.Config.AuthMode == config.AuthModeRequired && len(h.Config.APIKeys) == 0 {
		issues = append(issues, "auth_mode=required but no api keys configured")
	}
	if h.Config.MaxJSONMessageBytes <= 0 {
		issues = append(issues, "max_json_message_bytes must be > 0")
	}
	if h.Config.HandshakeTimeout <= 0 {
		issues = append(issues, "handshake timeout must be > 0")
	}
	if h.Config.SilenceTimeout <= 0 || h.Config.ExtractTimeout <= 0 {
		issues = append(issues, "turn timeouts must be > 0")
	}
	if h.Config.MaxRetries <= 0 {
		issues = append(issues, "max_retries must be > 0")
	}
	if h.Config.MaxSessionDuration <= 0 {
		issues = append(issues, "max session duration must be > 0")
	}
	if len(h.Config.ServiceAreas) == 0 {
		issues = append(issues, "no service areas configured")
	}
	if len(h.Config.CaseTypes) == 0 {
		issues = append(issues, "no case types configured")
	}
	if h.Config.ReadHeaderTimeout <= 0 || h.Config.ReadTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}

	draining := h.Sessions != nil && h.Sessions.Draining()
	active := 0
	if h.Sessions != nil {
		active = h.Sessions.Count()
	}
	if draining {
		issues = append(issues, "server is draining")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:             ok,
		AuthMode:       string(h.Config.AuthMode),
		Draining:       draining,
		ActiveSessions: active,
		Issues:         issues,
	})
}
