package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/advice"
	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/config"
	"github.com/JakeFAU/daily-supplications/internal/id/uuid"
	"github.com/JakeFAU/daily-supplications/internal/metrics"
	"github.com/JakeFAU/daily-supplications/internal/policy/ratelimit"
	"github.com/JakeFAU/daily-supplications/internal/settings"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

const requestTimeout = 15 * time.Second

// ProgressService is the slice of store.ProgressStore the handlers need.
type ProgressService interface {
	Current(ctx context.Context, lang catalog.Language) (store.Snapshot, error)
	MarkCompleted(ctx context.Context, lang catalog.Language, id string) (store.CompletionState, error)
	ResetCompletions(ctx context.Context, lang catalog.Language, scope store.Scope) (store.CompletionState, error)
	AddCustom(ctx context.Context, lang catalog.Language, in store.NewCustom) (store.CustomSupplication, error)
	RemoveCustom(ctx context.Context, lang catalog.Language, id string) error
}

// SettingsService is the slice of settings.Service the handlers need.
type SettingsService interface {
	Current() settings.Preferences
	SetLanguage(ctx context.Context, lang catalog.Language) error
	SetTheme(ctx context.Context, theme settings.Theme) error
	ToggleNotifications(ctx context.Context) (bool, error)
	ToggleSound(ctx context.Context) (bool, error)
	SetMorningReminder(ctx context.Context, hhmm string) error
	SetEveningReminder(ctx context.Context, hhmm string) error
}

// AdviceSource reports the advice currently on display.
type AdviceSource interface {
	Current() advice.Advice
}

// Deps bundles the collaborators behind the HTTP surface.
type Deps struct {
	Progress ProgressService
	Settings SettingsService
	Catalog  *catalog.Catalog
	Advice   *advice.Book
	Rotator  AdviceSource
	// Metrics serves /metrics; nil falls back to the default registry.
	Metrics http.Handler
	// Ready is consulted by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// Server wires HTTP handlers to the progress store and settings.
type Server struct {
	router chi.Router
	deps   Deps
	cfg    config.Config
	logger *zap.Logger
	ids    *uuid.Generator

	tapsMu sync.Mutex
	taps   map[catalog.Language]*store.TapCounter
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if deps.Progress == nil {
		return nil, errors.New("progress service is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("settings service is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if deps.Advice == nil {
		return nil, errors.New("advice book is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Handler()
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		ids:    uuid.New(),
		taps:   make(map[catalog.Language]*store.TapCounter),
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", deps.Metrics)

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		if limiter := ratelimit.New(cfg.Server.RateLimit); limiter.Enabled() {
			limiter.OnReject = func(key string) {
				metrics.ObserveRateLimited()
				logger.Debug("rate limited", zap.String("client", key))
			}
			r.Use(limiter.Middleware)
		}
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.getSettings)
			r.Put("/language", s.putLanguage)
			r.Put("/theme", s.putTheme)
			r.Put("/reminders", s.putReminders)
			r.Post("/notifications/toggle", s.toggleNotifications)
			r.Post("/sound/toggle", s.toggleSound)
		})
		r.Get("/advice/current", s.currentAdvice)
		r.Route("/{lang}", func(r chi.Router) {
			r.Use(languageMiddleware)
			r.Get("/progress", s.getProgress)
			r.Get("/supplications/{type}", s.listSupplications)
			r.Post("/completions/reset", s.resetCompletions)
			r.Post("/completions/{id}", s.markCompleted)
			r.Post("/taps/{id}", s.tap)
			r.Post("/custom", s.addCustom)
			r.Delete("/custom/{id}", s.removeCustom)
			r.Get("/advice", s.listAdvice)
		})
	})

	s.router = r
	return s, nil
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// tapCounter returns the per-language counter, creating it on first use.
func (s *Server) tapCounter(lang catalog.Language) *store.TapCounter {
	s.tapsMu.Lock()
	defer s.tapsMu.Unlock()
	tc, ok := s.taps[lang]
	if !ok {
		tc = store.NewTapCounter(lang, s.deps.Progress)
		s.taps[lang] = tc
	}
	return tc
}

type langKey struct{}

func languageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang, err := catalog.ParseLanguage(chi.URLParam(r, "lang"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), langKey{}, lang)))
	})
}

func languageFrom(r *http.Request) catalog.Language {
	if lang, ok := r.Context().Value(langKey{}).(catalog.Language); ok {
		return lang
	}
	return catalog.LanguageEnglish
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if !uuid.Valid(reqID) {
			reqID = s.ids.MustNewID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.String("request_id", RequestID(r.Context())),
					zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps store and settings errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	}
	switch {
	case errors.Is(err, catalog.ErrUnknownLanguage),
		errors.Is(err, catalog.ErrUnknownType),
		errors.Is(err, store.ErrUnknownScope),
		errors.Is(err, settings.ErrInvalidTheme),
		errors.Is(err, settings.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "request timed out")
		return
	}
	s.logger.Error("request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	var perr *store.PersistenceError
	if errors.As(err, &perr) {
		writeError(w, http.StatusServiceUnavailable, "failed to persist changes")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}
