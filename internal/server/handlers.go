package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/citsci/scirec/internal/utils"
	"github.com/citsci/scirec/pkg/journal"
)

const defaultCount = 10

type updateResponse struct {
	NewRows   int `json:"new_rows"`
	TotalRows int `json:"total_rows"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	incremental := true
	if v := r.FormValue("incremental"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid incremental value", http.StatusBadRequest)
			return
		}
		incremental = parsed
	}

	start := time.Now()
	added, err := s.Cache.Sync(r.Context(), incremental)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total := s.Cache.Len()

	if s.Journal != nil {
		mode := "incremental"
		if !incremental {
			mode = "full"
		}
		run := journal.Run{
			StartedAt: start,
			Mode:      mode,
			NewRows:   added,
			TotalRows: total,
			Duration:  time.Since(start),
		}
		if jerr := s.Journal.RecordRun(r.Context(), run); jerr != nil {
			utils.Log.Warnf("Could not record sync run: %v", jerr)
		}
	}

	writeJSON(w, updateResponse{NewRows: added, TotalRows: total})
}

type recommendationsResponse struct {
	Address            string   `json:"address"`
	Recommendations    []string `json:"recommendations"`
	MaxRecommendations int      `json:"max_recommendations"`
	MaxDistanceKm      float64  `json:"max_distance,omitempty"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := q.Get("address")

	count := defaultCount
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid count value", http.StatusBadRequest)
			return
		}
		count = n
	}
	var maxDistance float64
	if v := q.Get("max_distance"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			http.Error(w, "invalid max_distance value", http.StatusBadRequest)
			return
		}
		maxDistance = f
	}

	recommendations := []string{}
	if address != "" {
		uids, err := s.Engine.Recommend(r.Context(), address, count, maxDistance)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if uids != nil {
			recommendations = uids
		}
	}

	writeJSON(w, recommendationsResponse{
		Address:            address,
		Recommendations:    recommendations,
		MaxRecommendations: count,
		MaxDistanceKm:      maxDistance,
	})
}

func (s *Server) handleSyncs(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		http.Error(w, "sync journal not enabled", http.StatusNotFound)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit value", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.Journal.RecentRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []journal.Run{}
	}
	writeJSON(w, runs)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
