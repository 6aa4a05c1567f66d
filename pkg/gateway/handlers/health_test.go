package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/legalaid-go/screenline/pkg/gateway/config"
	"github.com/legalaid-go/screenline/pkg/sessions"
)

func readyConfig() config.Config {
	return config.Config{
		AuthMode:            config.AuthModeDisabled,
		APIKeys:             map[string]struct{}{},
		MaxJSONMessageBytes: 64 * 1024,
		HandshakeTimeout:    5 * time.Second,
		SilenceTimeout:      10 * time.Second,
		MaxRetries:          3,
		ExtractTimeout:      10 * time.Second,
		MaxSessionDuration:  15 * time.Minute,
		ServiceAreas:        []string{"Test County"},
		CaseTypes:           []string{"housing"},
		ReadHeaderTimeout:   10 * time.Second,
		ReadTimeout:         30 * time.Second,
	}
}

func decodeReady(t *testing.T, rr *httptest.ResponseRecorder) (ok bool, issues []string) {
	t.Helper()
	var resp struct {
		OK     bool     `json:"ok"`
		Issues []string `json:"issues"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode ready response: %v", err)
	}
	return resp.OK, resp.Issues
}

func TestHealthHandlerAlwaysOK(t *testing.T) {
	rr := httptest.NewRecorder()
	HealthHandler{}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestReadyHandlerValidConfigReady(t *testing.T) {
	h := ReadyHandler{Config: readyConfig(), Sessions: sessions.NewManager()}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ok, issues := decodeReady(t, rr); !ok || len(issues) != 0 {
		t.Fatalf("ok=%v issues=%v", ok, issues)
	}
}

func TestReadyHandlerRequiredAuthWithoutKeysNotReady(t *testing.T) {
	cfg := readyConfig()
	cfg.AuthMode = config.AuthModeRequired

	rr := httptest.NewRecorder()
	ReadyHandler{Config: cfg}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
	if ok, issues := decodeReady(t, rr); ok || len(issues) == 0 {
		t.Fatalf("ok=%v issues=%v, want not ready with issues", ok, issues)
	}
}

func TestReadyHandlerNoServiceAreasNotReady(t *testing.T) {
	cfg := readyConfig()
	cfg.ServiceAreas = nil

	rr := httptest.NewRecorder()
	ReadyHandler{Config: cfg}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
}

func TestReadyHandlerDrainingNotReady(t *testing.T) {
	manager := sessions.NewManager()
	manager.SetDraining()
	h := ReadyHandler{Config: readyConfig(), Sessions: manager}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503 while draining", rr.Code)
	}
}
