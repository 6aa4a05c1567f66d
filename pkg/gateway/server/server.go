package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/legalaid-go/screenline/pkg/extract"
	"github.com/legalaid-go/screenline/pkg/gateway/config"
	"github.com/legalaid-go/screenline/pkg/gateway/handlers"
	"github.com/legalaid-go/screenline/pkg/gateway/mw"
	"github.com/legalaid-go/screenline/pkg/outcome"
	"github.com/legalaid-go/screenline/pkg/screening"
	"github.com/legalaid-go/screenline/pkg/sessions"
)

// Dependencies are the shared services the gateway routes to.
type Dependencies struct {
	Extractor extract.Extractor
	Recorder  outcome.Recorder
	Sessions  *sessions.Manager
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	machine   *screening.Machine
	extractor extract.Extractor
	recorder  outcome.Recorder
	sessions  *sessions.Manager
}

func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Sessions == nil {
		deps.Sessions = sessions.NewManager()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		machine: screening.NewMachine(screening.Eligibility{
			ServiceAreas:           cfg.ServiceAreas,
			CaseTypes:              cfg.CaseTypes,
			PovertyBaseAnnual:      cfg.PovertyBaseAnnual,
			PovertyIncrementAnnual: cfg.PovertyIncrementAnnual,
			IncomeMultiplier:       cfg.IncomeMultiplier,
			AssetLimit:             cfg.AssetLimit,
			MinConfidence:          screening.ConfidenceCertain,
		}),
		extractor: deps.Extractor,
		recorder:  deps.Recorder,
		sessions:  deps.Sessions,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/", handlers.NotFoundHandler{})
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg, Sessions: s.sessions})

	s.mux.Handle("/v1/call", handlers.CallHandler{
		Config:    s.cfg,
		Logger:    s.logger,
		Sessions:  s.sessions,
		Machine:   s.machine,
		Extractor: s.extractor,
		Recorder:  s.recorder,
	})
}

// SetDraining stops new screenings from being accepted.
func (s *Server) SetDraining() {
	s.sessions.SetDraining()
}

// WarnSessionsDraining tells every active caller the line is closing soon.
func (s *Server) WarnSessionsDraining() {
	s.sessions.WarnAll("draining", "this call will end shortly")
}

// WaitSessions blocks until every screening finishes or ctx expires.
func (s *Server) WaitSessions(ctx context.Context) bool {
	return s.sessions.Wait(ctx)
}

// EndSessions force-ends every screening that outlived the drain window.
func (s *Server) EndSessions(reason string) {
	s.sessions.EndAll(reason)
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Auth(s.cfg, h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
