package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/lcrivelli/energybuddy/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest := s.latest.Latest()
	if latest == nil {
		http.Error(w, "no data yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(latest)
}

type seriesResponse struct {
	Series   string               `json:"series"`
	From     time.Time            `json:"from"`
	To       time.Time            `json:"to"`
	Points   []models.SeriesPoint `json:"points"`
	TotalKWh float64              `json:"total_kwh"`
	CostCHF  float64              `json:"cost_chf"`
}

// handleSeries serves GET /api/v1/series/{kind}?from=RFC3339&to=RFC3339.
// Defaults to the last 7 days.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/series/")

	var kind models.SeriesKind
	switch name {
	case "day":
		kind = models.SeriesDay
	case "night":
		kind = models.SeriesNight
	case "total":
		kind = models.SeriesTotal
	default:
		http.Error(w, "unknown series: "+name, http.StatusNotFound)
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "bad from: "+err.Error(), http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "bad to: "+err.Error(), http.StatusBadRequest)
			return
		}
		to = t
	}

	points, err := s.store.Range(kind.SeriesID(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var total float64
	for _, p := range points {
		total += p.State
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(seriesResponse{
		Series:   name,
		From:     from,
		To:       to,
		Points:   points,
		TotalKWh: total,
		CostCHF:  s.schedule.Cost(points),
	})
}
