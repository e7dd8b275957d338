package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"latte/internal/report"
)

// queryTimeout caps each request's store work. Reads are cheap on the
// expected data sizes; anything slower signals a stuck store.
const queryTimeout = 7 * time.Second

// ReadyChecker reports whether the underlying store is reachable.
type ReadyChecker interface {
	Ping(ctx context.Context) error
}

// Server is the read-only reporting API.
type Server struct {
	http.Server
	engine *report.Engine
	ready  ReadyChecker
	logger *zap.Logger
}

// NewServer configures the router and returns a ready-to-run server.
func NewServer(addr string, engine *report.Engine, ready ReadyChecker, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		engine: engine,
		ready:  ready,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(securityHeaders)
	r.Use(middleware.Timeout(queryTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/farms", s.handleListFarms)
		r.Route("/farms/{farm}", func(r chi.Router) {
			r.Get("/animals", s.handleListAnimals)
			r.Get("/summary", s.handleFarmSummary)
			r.Get("/report.csv", s.handleFarmCSV)
		})
		r.Route("/animals/{earTag}", func(r chi.Router) {
			r.Get("/summary", s.handleAnimalSummary)
			r.Get("/report.csv", s.handleAnimalCSV)
		})
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// requestLogger logs method, path, status, and duration per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request completed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.ready.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
