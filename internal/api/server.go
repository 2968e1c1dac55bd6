// Package api exposes the handbook question endpoint over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"handbookbot/internal/domain"
)

// Config holds listener settings. A zero RateLimitRPS disables rate limiting.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the HTTP server for the handbook API.
type Server struct {
	asker   domain.Asker
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewServer(asker domain.Asker, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{asker: asker, cfg: cfg, logger: logger}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/health", s.handleHealth)

	var h http.Handler = mux
	if s.limiter != nil {
		h = rateLimitMiddleware(s.limiter, h)
	}
	return corsMiddleware(loggingMiddleware(s.logger, h))
}

// Start runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("handbook API listening", zap.String("addr", s.cfg.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
