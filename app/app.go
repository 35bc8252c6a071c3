// Copyright 2025 The restsvc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/restsvc/restsvc"
	"github.com/restsvc/restsvc/compress"
	"github.com/restsvc/restsvc/config"
	"github.com/restsvc/restsvc/engine"
	"github.com/restsvc/restsvc/logging"
	"github.com/restsvc/restsvc/metrics"
	"github.com/restsvc/restsvc/openapi"
	"github.com/restsvc/restsvc/tracing"
)

// Option customizes an [App] beyond what the configuration expresses.
type Option func(*options)

type options struct {
	logOutput   io.Writer
	traceOutput io.Writer
	server      []restsvc.Option
	openapi     []openapi.Option
}

// WithLogOutput sends log records to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithTraceOutput sends stdout-exported spans to w.
func WithTraceOutput(w io.Writer) Option {
	return func(o *options) { o.traceOutput = w }
}

// WithServerOptions appends options to the restsvc server, after the ones
// derived from the configuration.
func WithServerOptions(opts ...restsvc.Option) Option {
	return func(o *options) { o.server = append(o.server, opts...) }
}

// WithAuthenticator registers a named authenticator on the server.
func WithAuthenticator(name string, a restsvc.Authenticator) Option {
	return WithServerOptions(restsvc.WithAuthenticator(name, a))
}

// WithOpenAPI appends options to the OpenAPI generator.
func WithOpenAPI(opts ...openapi.Option) Option {
	return func(o *options) { o.openapi = append(o.openapi, opts...) }
}

// App is a configured, built restsvc server ready to listen.
type App struct {
	cfg      config.Config
	logger   *logging.Logger
	tracing  *tracing.Provider
	metrics  *metrics.Recorder
	server   *restsvc.Server
	engine   engine.Engine
	document *openapi.Document
	handler  http.Handler
}

// New validates cfg, sets up observability, registers services and builds
// them on the configured engine.
func New(ctx context.Context, cfg config.Config, services []restsvc.Service, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logOutput: os.Stderr, traceOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg}

	logger, err := logging.New(append(cfg.LoggingOptions(), logging.WithOutput(o.logOutput))...)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	a.logger = logger

	tp, err := tracing.New(ctx, append(cfg.TracingOptions(), tracing.WithWriter(o.traceOutput))...)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.tracing = tp

	serverOpts := []restsvc.Option{
		restsvc.WithLogger(logger.Logger()),
		restsvc.WithErrorFormatter(cfg.ErrorFormatter()),
		restsvc.WithTracerProvider(tp.TracerProvider()),
		restsvc.WithMaxMultipartMemory(cfg.Server.MaxMultipartMemory),
		restsvc.WithExposeErrors(cfg.Errors.Expose),
		restsvc.WithRequestIDHeader(cfg.Server.RequestIDHeader),
		restsvc.WithRequestIDGenerator(cfg.RequestIDGenerator()),
	}
	if cfg.Metrics.Enabled {
		rec, err := metrics.New(cfg.MetricsOptions()...)
		if err != nil {
			return nil, a.abort(ctx, fmt.Errorf("metrics: %w", err))
		}
		a.metrics = rec
		serverOpts = append(serverOpts, restsvc.WithMetrics(rec))
	}

	srv, err := restsvc.New(append(serverOpts, o.server...)...)
	if err != nil {
		return nil, a.abort(ctx, err)
	}
	if err := srv.Register(services...); err != nil {
		return nil, a.abort(ctx, err)
	}
	eng, err := NewEngine(cfg.Server.Engine)
	if err != nil {
		return nil, a.abort(ctx, err)
	}
	if err := srv.Build(eng); err != nil {
		return nil, a.abort(ctx, err)
	}
	a.server, a.engine = srv, eng

	docOpts := []openapi.Option{openapi.WithTitle(cfg.Service.Name)}
	if cfg.Service.Version != "" {
		docOpts = append(docOpts, openapi.WithVersion(cfg.Service.Version))
	}
	docOpts = append(docOpts, o.openapi...)
	doc, err := openapi.Generate(srv.Routes(), docOpts...)
	if err != nil {
		return nil, a.abort(ctx, fmt.Errorf("openapi: %w", err))
	}
	a.document = doc
	a.handler = a.mount()
	if cfg.Compression.Enabled {
		mw, err := compress.New(cfg.CompressionOptions()...)
		if err != nil {
			return nil, a.abort(ctx, fmt.Errorf("compression: %w", err))
		}
		a.handler = mw(a.handler)
	}

	logger.Logger().Debug("app built",
		"engine", eng.Name(),
		"routes", len(srv.Routes()),
		"metrics", cfg.Metrics.Enabled,
		"tracing", string(tp.Exporter()),
		"compression", cfg.Compression.Enabled,
	)

	return a, nil
}

// abort releases what New already started.
func (a *App) abort(ctx context.Context, err error) error {
	if a.tracing != nil {
		if serr := a.tracing.Shutdown(ctx); serr != nil {
			return errors.Join(err, serr)
		}
	}
	return err
}

func (a *App) mount() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	mux.Handle("GET /openapi.json", a.document.Handler())
	if a.metrics != nil {
		mux.Handle("GET "+a.cfg.Metrics.Path, a.metrics.Handler())
	}
	mux.Handle("/", a.engine)
	return mux
}

// Handler returns the complete HTTP handler: services plus the health,
// metrics and OpenAPI endpoints.
func (a *App) Handler() http.Handler { return a.handler }

// Server returns the underlying restsvc server.
func (a *App) Server() *restsvc.Server { return a.server }

// Engine returns the host router adapter.
func (a *App) Engine() engine.Engine { return a.engine }

// Document returns the generated OpenAPI document.
func (a *App) Document() *openapi.Document { return a.document }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger.Logger() }

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config { return a.cfg }

// Run listens on the configured address and serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", a.cfg.Server.Addr)
	if err != nil {
		_ = a.tracing.Shutdown(context.Background())
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then drains
// in-flight requests and flushes pending spans. ln is closed on return.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	logger := a.logger.Logger()
	server := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server starting",
			"address", ln.Addr().String(),
			"engine", a.engine.Name(),
			"environment", a.cfg.Service.Environment,
			"routes", len(a.server.Routes()),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = a.tracing.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info("server shutting down", "reason", context.Cause(ctx))
	}

	// ctx is already canceled; the shutdown deadline starts fresh.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	serr := server.Shutdown(shutdownCtx)

	// Spans are flushed even when draining ran out of time, so tracing
	// gets a deadline of its own.
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancelFlush()
	if err := a.tracing.Shutdown(flushCtx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
	}
	if serr != nil {
		return fmt.Errorf("server forced to shutdown: %w", serr)
	}
	logger.Info("server exited")

	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
