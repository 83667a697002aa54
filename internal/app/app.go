// Package app wires all VoxBridge subsystems into a running relay server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithDialer,
// WithTranscriptStore, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/health"
	"github.com/voxbridge/voxbridge/internal/httpapi"
	"github.com/voxbridge/voxbridge/internal/observe"
	"github.com/voxbridge/voxbridge/internal/pipeline"
	"github.com/voxbridge/voxbridge/internal/relay"
	"github.com/voxbridge/voxbridge/internal/session"
	"github.com/voxbridge/voxbridge/internal/telephony"
	"github.com/voxbridge/voxbridge/internal/transcript"
	"github.com/voxbridge/voxbridge/pkg/provider/stt"
	"github.com/voxbridge/voxbridge/pkg/provider/translate"
	"github.com/voxbridge/voxbridge/pkg/provider/tts"
)

// Speech holds one implementation per pipeline stage. Populated by main.go
// from the config.
type Speech struct {
	Transcriber stt.Transcriber
	Translator  translate.Translator
	Synthesizer tts.Synthesizer
}

// App owns all subsystem lifetimes and the HTTP surface of the relay.
type App struct {
	cfg    *config.Config
	speech Speech
	logger *slog.Logger

	// Subsystems, initialised in New, torn down in Shutdown.
	registry    *session.Registry
	hub         *relay.Hub
	dispatcher  *pipeline.Dispatcher
	transcripts transcript.Store
	dialer      telephony.Dialer
	metrics     *observe.Metrics
	server      *http.Server

	// closers are called in reverse order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithDialer injects a call dialer instead of creating the REST client.
func WithDialer(d telephony.Dialer) Option {
	return func(a *App) { a.dialer = d }
}

// WithTranscriptStore injects a transcript store instead of creating one
// from config.
func WithTranscriptStore(s transcript.Store) Option {
	return func(a *App) { a.transcripts = s }
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithMetrics injects a metrics instance, mainly for tests that need an
// isolated meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together: transcript store,
// session registry, stream hub, frame dispatcher, translation pipeline,
// telephony edge, and the HTTP mux.
func New(ctx context.Context, cfg *config.Config, speech Speech, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		speech: speech,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initTranscripts(ctx); err != nil {
		return nil, fmt.Errorf("app: init transcripts: %w", err)
	}
	a.initRelay()
	a.initServer()

	return a, nil
}

// initTranscripts sets up the transcript store: PostgreSQL when a DSN is
// configured, in-memory otherwise.
func (a *App) initTranscripts(ctx context.Context) error {
	if a.transcripts != nil {
		return nil
	}
	if dsn := a.cfg.Database.DSN; dsn != "" {
		store, err := transcript.NewPostgresStore(ctx, dsn)
		if err != nil {
			return err
		}
		a.transcripts = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		a.logger.Info("transcript store ready", "backend", "postgres")
		return nil
	}
	a.transcripts = transcript.NewMemStore()
	a.logger.Info("transcript store ready", "backend", "memory")
	return nil
}

// initRelay builds the audio path: registry, hub, router, pipeline, and the
// per-stream dispatcher.
func (a *App) initRelay() {
	registryOpts := []session.RegistryOption{
		session.WithLogger(a.logger),
		session.WithMetrics(a.metrics),
	}
	if d := a.cfg.Pipeline.TeardownDelay.Std(); d > 0 {
		registryOpts = append(registryOpts, session.WithRemoveDelay(d))
	}
	a.registry = session.NewRegistry(registryOpts...)

	a.hub = relay.NewHub()
	router := relay.NewRouter(a.hub)

	pipe := pipeline.New(
		a.speech.Transcriber,
		a.speech.Translator,
		a.speech.Synthesizer,
		a.registry,
		router,
		pipeline.WithTranscriptStore(a.transcripts),
		pipeline.WithLogger(a.logger),
		pipeline.WithMetrics(a.metrics),
	)

	dispatcherOpts := []pipeline.DispatcherOption{
		pipeline.WithDispatcherLogger(a.logger),
		pipeline.WithDispatcherMetrics(a.metrics),
	}
	if a.cfg.Pipeline.QueueDepth > 0 {
		dispatcherOpts = append(dispatcherOpts, pipeline.WithQueueDepth(a.cfg.Pipeline.QueueDepth))
	}
	a.dispatcher = pipeline.NewDispatcher(pipe, dispatcherOpts...)
}

// initServer assembles the HTTP mux: session API, telephony webhooks, media
// streams, health probes, and the metrics endpoint.
func (a *App) initServer() {
	urls := telephony.URLs{Public: a.cfg.Server.PublicURL}
	if a.dialer == nil {
		a.dialer = telephony.NewRestClient(
			a.cfg.Telephony.AccountSID,
			a.cfg.Telephony.AuthToken,
			a.cfg.Telephony.FromNumber,
			restClientOptions(a.cfg.Telephony.BaseURL)...,
		)
	}

	mux := http.NewServeMux()

	api := httpapi.NewSessionHandler(a.registry, a.dialer, urls,
		a.cfg.Languages, a.transcripts, a.logger)
	api.Register(mux)

	hooks := telephony.NewWebhooks(a.registry, urls, a.logger)
	mux.HandleFunc("POST /telephony/answer", hooks.Answer)
	mux.HandleFunc("POST /telephony/call-status", hooks.CallStatus)
	mux.HandleFunc("POST /telephony/conference-status", hooks.ConferenceStatus)

	media := telephony.NewMediaServer(a.registry, a.hub, a.dispatcher, a.logger, a.metrics)
	mux.Handle("GET /telephony/media", media)

	a.healthHandler().Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// healthHandler builds the readiness checkers for the relay's dependencies.
func (a *App) healthHandler() *health.Handler {
	checkers := []health.Checker{
		health.Static("telephony_credentials", func() bool {
			return a.cfg.Telephony.AccountSID != "" && a.cfg.Telephony.AuthToken != ""
		}, "telephony credentials missing"),
	}
	if p, ok := a.transcripts.(health.Pinger); ok {
		checkers = append(checkers, health.Database("transcripts", p))
	}
	return health.New(checkers...)
}

// restClientOptions builds dialer options for a configured API base.
func restClientOptions(baseURL string) []telephony.ClientOption {
	if baseURL == "" {
		return nil
	}
	return []telephony.ClientOption{telephony.WithBaseURL(baseURL)}
}

// Handler returns the fully assembled HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Registry exposes the session registry, mainly for tests.
func (a *App) Registry() *session.Registry {
	return a.registry
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", a.cfg.Server.ListenAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown tears down all subsystems: stop accepting HTTP, drain in-flight
// frames, drop sessions and streams, then run closers in reverse-init order.
// It respects the context deadline.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down")

		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("http shutdown error", "error", err)
			shutdownErr = err
		}

		a.dispatcher.Close()
		a.hub.Close()
		a.registry.Close()

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				a.logger.Warn("closer error", "index", i, "error", err)
			}
		}

		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}
