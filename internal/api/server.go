// Package api exposes the operational HTTP surface: health, metrics, the
// latest reading and series range queries.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcrivelli/energybuddy/internal/models"
	"github.com/lcrivelli/energybuddy/internal/pricing"
	"github.com/lcrivelli/energybuddy/internal/store"
)

// LatestProvider supplies the most recent closed-hour reading; the scheduler
// implements it.
type LatestProvider interface {
	Latest() *models.ConsumptionSummary
}

type Server struct {
	store    *store.Store
	latest   LatestProvider
	schedule pricing.Schedule
	port     string
}

func NewServer(st *store.Store, latest LatestProvider, schedule pricing.Schedule, port string) *Server {
	return &Server{
		store:    st,
		latest:   latest,
		schedule: schedule,
		port:     port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/latest", s.handleLatest)
	mux.HandleFunc("/api/v1/series/", s.handleSeries)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
