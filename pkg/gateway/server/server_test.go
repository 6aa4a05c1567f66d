package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/legalaid-go/screenline/pkg/extract"
	"github.com/legalaid-go/screenline/pkg/gateway/config"
	"github.com/legalaid-go/screenline/pkg/outcome"
)

func testConfig() config.Config {
	return config.Config{
		AuthMode:            config.AuthModeDisabled,
		APIKeys:             map[string]struct{}{},
		CORSAllowedOrigins:  map[string]struct{}{},
		MaxJSONMessageBytes: 64 * 1024,
		HandshakeTimeout:    5 * time.Second,
		SilenceTimeout:      10 * time.Second,
		MaxRetries:          3,
		ExtractTimeout:      10 * time.Second,
		MaxSessionDuration:  15 * time.Minute,
		RecordTimeout:       5 * time.Second,
		ServiceAreas:        []string{"Test County"},
		CaseTypes:           []string{"housing"},
		ReadHeaderTimeout:   10 * time.Second,
		ReadTimeout:         30 * time.Second,
	}
}

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testConfig(), logger, Dependencies{
		Extractor: extract.NewScripted(),
		Recorder:  outcome.NewLogRecorder(logger),
	})
}

func TestServerUnknownRouteReturnsJSON404(t *testing.T) {
	s := newTestServer()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"code":"not_found"`) {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestServerHealthRoute(t *testing.T) {
	s := newTestServer()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "ok") {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestServerReadyRoute(t *testing.T) {
	s := newTestServer()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestServerReadyFailsWhileDraining(t *testing.T) {
	s := newTestServer()
	s.SetDraining()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503 while draining", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "draining") {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestServerCallRouteReachable(t *testing.T) {
	s := newTestServer()

	// A plain GET without the websocket upgrade headers is rejected by the
	// upgrader, but the route must exist.
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/call", nil))
	if rr.Code == http.StatusNotFound {
		t.Fatalf("/v1/call unexpectedly returned 404")
	}
}

func TestServerHealthBypassesRequiredAuth(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = config.AuthModeRequired
	cfg.APIKeys = map[string]struct{}{"sk_test": {}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(cfg, logger, Dependencies{
		Extractor: extract.NewScripted(),
		Recorder:  outcome.NewLogRecorder(logger),
	})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200 without credentials", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/call", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401 without credentials", rr.Code)
	}
}
