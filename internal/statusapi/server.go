// Package statusapi exposes the watcher's state over a small local HTTP
// surface: liveness, counters, recent alerts and a live websocket feed.
//
// DESIGN: Read-only and bound to localhost by default. The API observes the
// watcher, it never steers it; killing the API leaves detection untouched.
package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/upstreamlab/poolwatch/internal/monitoring"
	"github.com/upstreamlab/poolwatch/internal/notify"
	"github.com/upstreamlab/poolwatch/internal/watcher"
)

// StatsSource supplies watcher state snapshots.
type StatsSource interface {
	Stats() watcher.Stats
}

// AlertSource supplies delivered alerts, past and live.
type AlertSource interface {
	History() []notify.Delivery
	Subscribe(buffer int) (<-chan notify.Delivery, func())
}

// Config holds the status API settings.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`       // default 127.0.0.1:8089
	RateLimit int    `yaml:"rate_limit"` // requests/second per IP, default 10
}

// Server serves the status endpoints.
type Server struct {
	cfg       Config
	version   string
	stats     StatsSource
	alerts    AlertSource
	reqLog    *monitoring.RequestLogger
	flags     *monitoring.AlertManager
	limiter   *rateLimiter
	startedAt time.Time
	srv       *http.Server
}

// New assembles the server and its middleware chain.
func New(cfg Config, version string, stats StatsSource, alerts AlertSource, logger *monitoring.Logger, flags *monitoring.AlertManager) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8089"
	}
	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 10
	}

	s := &Server{
		cfg:       cfg,
		version:   version,
		stats:     stats,
		alerts:    alerts,
		reqLog:    monitoring.NewRequestLogger(logger),
		flags:     flags,
		limiter:   newRateLimiter(rate),
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/feed", s.handleFeed)

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler wraps a handler in the middleware chain, outermost first:
// panic recovery, rate limiting, logging, security headers.
func (s *Server) Handler(next http.Handler) http.Handler {
	return s.panicRecovery(s.rateLimit(s.loggingMiddleware(s.security(next))))
}

// Start serves until Shutdown. A closed listener is a clean exit.
func (s *Server) Start() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("Status API listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) uptime() float64 {
	return time.Since(s.startedAt).Seconds()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": s.uptime(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"version":        s.version,
		"uptime_seconds": s.uptime(),
		"watcher":        s.stats.Stats(),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	history := s.alerts.History()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(history),
		"alerts": history,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Status API response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, msg string, status int) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
