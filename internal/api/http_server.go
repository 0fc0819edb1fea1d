package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-Id"

// Services bundles the domain services the transports call into.
type Services struct {
	Bookings domain.BookingService
	Queries  domain.BookingQueryService
	Items    domain.ItemService
	Comments domain.CommentService
	Users    domain.UserService
}

// ReadinessChecker reports whether the backing store can serve requests.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HTTPServer exposes the booking API over JSON.
type HTTPServer struct {
	services Services
	booking  config.BookingConfig
	quota    config.APIRateLimitConfig
	writes   domain.RateLimitRepository
	ready    ReadinessChecker
	auth     *HTTPAuth
	validate *validator.Validate
	logger   *zerolog.Logger
	now      func() time.Time

	handler http.Handler
	server  *http.Server
}

// NewHTTPServer wires routes and middleware. writes may be nil, which turns
// the per-user write quota off.
func NewHTTPServer(cfg *config.Config, svc Services, ready ReadinessChecker,
	writes domain.RateLimitRepository, logger *zerolog.Logger) *HTTPServer {
	l := logger.With().Str("component", "http").Logger()
	srv := &HTTPServer{
		services: svc,
		booking:  cfg.Booking,
		quota:    cfg.API.RateLimit,
		writes:   writes,
		ready:    ready,
		auth:     NewHTTPAuth(cfg.API),
		logger:   &l,
		now:      time.Now,
	}
	srv.validate = newValidator(func() time.Time { return srv.now() })

	srv.handler = srv.auth.Wrap(srv.routes())
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.API.HTTP.ReadTimeout,
		WriteTimeout:      cfg.API.HTTP.WriteTimeout,
	}

	return srv
}

func (s *HTTPServer) routes() *httprouter.Router {
	r := httprouter.New()

	s.handle(r, http.MethodGet, "/bookings", s.listBookerBookings)
	// "owner" shares the :id segment with booking lookups.
	s.handle(r, http.MethodGet, "/bookings/:id", s.getBooking)
	s.handle(r, http.MethodGet, "/bookings/:id/export", s.exportOwnerBookings)
	s.handle(r, http.MethodPost, "/bookings", s.limitWrites(s.createBooking))
	s.handle(r, http.MethodPatch, "/bookings/:id", s.limitWrites(s.decideBooking))

	s.handle(r, http.MethodPost, "/users", s.createUser)
	s.handle(r, http.MethodGet, "/users/:id", s.getUser)

	s.handle(r, http.MethodGet, "/items", s.listOwnerItems)
	s.handle(r, http.MethodGet, "/items/:id", s.getItem)
	s.handle(r, http.MethodPost, "/items", s.limitWrites(s.createItem))
	s.handle(r, http.MethodPatch, "/items/:id", s.limitWrites(s.updateItem))
	s.handle(r, http.MethodPost, "/items/:id/comment", s.limitWrites(s.addComment))

	s.handle(r, http.MethodGet, "/healthz", s.healthz)
	s.handle(r, http.MethodGet, "/readyz", s.readyz)

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.PanicHandler = s.recoverPanic

	return r
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handle registers h under path with access logging, metrics and a
// request-scoped logger in the context.
func (s *HTTPServer) handle(r *httprouter.Router, method, path string, h httprouter.Handle) {
	r.Handle(method, path, func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		start := time.Now()

		requestID := strings.TrimSpace(req.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		reqLogger := s.logger.With().Str("request_id", requestID).Logger()
		req = req.WithContext(reqLogger.WithContext(req.Context()))
		if req.Body != nil {
			req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(recorder, req, ps)

		dur := time.Since(start)
		metrics.ObserveHTTP(path, method, recorder.status, dur)
		reqLogger.Info().
			Str("method", method).
			Str("route", path).
			Str("path", req.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func (s *HTTPServer) recoverPanic(w http.ResponseWriter, r *http.Request, rec interface{}) {
	s.logger.Error().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Interface("panic", rec).
		Msg("handler panicked")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// limitWrites enforces the per-user write quota. Requests without a usable
// acting user pass through so the handler reports the header problem.
func (s *HTTPServer) limitWrites(next httprouter.Handle) httprouter.Handle {
	if s.writes == nil || s.quota.UserWrites <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID, err := s.actingUser(r)
		if err != nil {
			next(w, r, ps)
			return
		}

		allowed, err := s.writes.CheckRateLimit(r.Context(), userID, s.quota.UserWrites, s.quota.UserWindow)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Int64("user_id", userID).Msg("write quota check failed")
			next(w, r, ps)
			return
		}
		if !allowed {
			metrics.IncRateLimited("user")
			writeError(w, http.StatusTooManyRequests, "too many write requests")
			return
		}
		next(w, r, ps)
	}
}

func (s *HTTPServer) healthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) readyz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.ready != nil {
		if err := s.ready.Ready(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, zerolog.Ctx(r.Context()), err)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
