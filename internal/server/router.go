// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/history"
	"github.com/replynow20/gemini-zotero/internal/insight"
	"github.com/replynow20/gemini-zotero/internal/observability"
	"github.com/replynow20/gemini-zotero/internal/templates"
)

// InsightGenerator runs the visual insight workflow.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, doc []byte, style insight.Style, onProgress domain.ProgressFunc) (string, error)
}

// Dependencies are the collaborators the handlers call into.
type Dependencies struct {
	Analyzer  domain.Analyzer
	Chatter   domain.Chatter
	Insight   InsightGenerator
	Templates *templates.Registry
	History   history.Store
	Logger    *observability.Logger
}

// Config holds HTTP settings.
type Config struct {
	RequestTimeout  time.Duration
	MaxUploadBytes  int64
	DefaultTemplate string
}

// NewRouter creates the API router with all routes configured.
func NewRouter(deps Dependencies, cfg Config) http.Handler {
	if deps.Logger == nil {
		deps.Logger = observability.Nop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
	if cfg.DefaultTemplate == "" {
		cfg.DefaultTemplate = templates.DefaultID
	}
	h := &handler{deps: deps, cfg: cfg, logger: deps.Logger.WithComponent("server")}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(traceRequests(h.logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"gemini-zotero"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/templates", h.listTemplates)
		r.Post("/analyze", h.analyze)
		r.Post("/chat", h.chat)
		r.Delete("/chat/{session}", h.clearChat)
		r.Post("/insight", h.insight)
	})

	return r
}

// traceRequests stores the request ID as trace ID and logs every request.
func traceRequests(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := chimiddleware.GetReqID(r.Context())
			if traceID == "" {
				traceID = observability.NewTraceID()
			}
			ctx := observability.ContextWithTraceID(r.Context(), traceID)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.WithContext(ctx).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration, logger *observability.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			return err
		}
	}

	logger.Info().Msg("Server stopped")
	return nil
}
