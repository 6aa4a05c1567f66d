package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/legalaid-go/screenline/internal/dotenv"
	"github.com/legalaid-go/screenline/pkg/extract"
	"github.com/legalaid-go/screenline/pkg/gateway/config"
	gatewayserver "github.com/legalaid-go/screenline/pkg/gateway/server"
	"github.com/legalaid-go/screenline/pkg/outcome"
	"github.com/legalaid-go/screenline/pkg/store"
)

type appDeps struct {
	loadConfig   func() (config.Config, error)
	newExtractor func(context.Context, config.Config) (extract.Extractor, error)
	newRecorder  func(context.Context, config.Config, *slog.Logger) (outcome.Recorder, func(), error)
	newGateway   func(config.Config, *slog.Logger, gatewayserver.Dependencies) *gatewayserver.Server
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultAppDeps() appDeps {
	return appDeps{
		loadConfig:   config.LoadFromEnv,
		newExtractor: buildExtractor,
		newRecorder:  buildRecorder,
		newGateway:   gatewayserver.New,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

func buildExtractor(ctx context.Context, cfg config.Config) (extract.Extractor, error) {
	switch cfg.ExtractProvider {
	case config.ExtractProviderAnthropic:
		return extract.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case config.ExtractProviderGemini:
		return extract.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported extract provider %q", cfg.ExtractProvider)
	}
}

func buildRecorder(ctx context.Context, cfg config.Config, logger *slog.Logger) (outcome.Recorder, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no database configured, outcomes go to the log only")
		return outcome.NewLogRecorder(logger), func() {}, nil
	}
	pg, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open outcome store: %w", err)
	}
	return pg, pg.Close, nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runApp(ctx context.Context, logger *slog.Logger, deps appDeps) error {
	if deps.loadConfig == nil || deps.newExtractor == nil || deps.newRecorder == nil || deps.newGateway == nil {
		return errors.New("missing app dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	extractor, err := deps.newExtractor(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build extractor: %w", err)
	}

	recorder, closeRecorder, err := deps.newRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRecorder()

	gw := deps.newGateway(cfg, logger, gatewayserver.Dependencies{
		Extractor: extractor,
		Recorder:  recorder,
	})
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting screening line",
		"addr", cfg.Addr,
		"auth_mode", cfg.AuthMode,
		"extract_provider", cfg.ExtractProvider,
		"service_areas", len(cfg.ServiceAreas),
	)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	// Stop taking calls, warn callers already on the line, then give active
	// screenings the grace period to finish before force-ending them. Every
	// force-ended session still records an abandoned outcome.
	gw.SetDraining()
	gw.WarnSessionsDraining()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !gw.WaitSessions(waitCtx) {
		gw.EndSessions(outcome.ReasonShutdown)
		endCtx, endCancel := context.WithTimeout(context.Background(), cfg.RecordTimeout+time.Second)
		defer endCancel()
		gw.WaitSessions(endCtx)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("screening line stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps appDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "screenline: %v\n", err)
		return 1
	}

	if err := runApp(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "screenline: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultAppDeps()))
}
