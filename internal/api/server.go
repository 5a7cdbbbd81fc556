// Package api exposes the sip service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"sip-go/internal/database/sqlc"
	"sip-go/internal/sip"
)

// Service is the part of *sip.SipService the HTTP surface calls.
type Service interface {
	LogIntake(req sip.LogIntakeRequest) (*sip.LogIntakeResult, error)
	DeleteIntake(eventID int64, userID string, dateForTotals string) (*sip.DeleteIntakeResult, error)
	SetGoal(userID string, date string, goal int64) (*sqlc.DailySnapshot, error)
	GetHistory(userID string, date string) (*sip.History, error)
	GetStats(req sip.StatsRequest) (*sip.Stats, error)
	BulkImport(userID string, entries []sip.ImportEntry, goal int64) (*sip.ImportResult, error)
	ClaimGuestData(fromUserID string, toUserID string, goal int64) (*sip.ClaimResult, error)
	Feedback(ctx context.Context, userID string, goal int64, date string) (string, error)
}

var _ Service = (*sip.SipService)(nil)

// Server routes HTTP requests to the service.
type Server struct {
	svc     Service
	logger  sip.Logger
	metrics *Metrics
	cors    *CORS
	router  *mux.Router
}

// NewServer builds the router for svc. corsOrigins lists allowed browser origins.
func NewServer(svc Service, logger sip.Logger, corsOrigins []string) *Server {
	s := &Server{
		svc:     svc,
		logger:  logger,
		metrics: NewMetrics(),
		cors:    NewCORS(corsOrigins),
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.metrics.Middleware, s.logRequests)

	r.HandleFunc("/", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/log", s.handleLog).Methods(http.MethodPost)
	r.HandleFunc("/log/{id:[0-9]+}", s.handleDeleteLog).Methods(http.MethodDelete)
	r.HandleFunc("/update-goal", s.handleUpdateGoal).Methods(http.MethodPost)
	r.HandleFunc("/history/{user_id}", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/stats/{user_id}", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/claim", s.handleClaim).Methods(http.MethodPost)
	r.HandleFunc("/ai-feedback", s.handleFeedback).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.cors.Handler(s.router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
