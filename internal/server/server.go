package server

import (
	"context"
	"net/http"

	"github.com/citsci/scirec/internal/utils"
	"github.com/citsci/scirec/pkg/journal"
)

// Syncer reconciles the record set. *cache.Cache satisfies it.
type Syncer interface {
	Sync(ctx context.Context, incremental bool) (int, error)
	Len() int
}

// Recommender answers ranking queries. *recommend.Engine satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, address string, count int, maxDistanceKm float64) ([]string, error)
}

// Journal records sync cycles. Optional; nil disables history endpoints.
type Journal interface {
	RecordRun(ctx context.Context, r journal.Run) error
	RecentRuns(ctx context.Context, limit int) ([]journal.Run, error)
}

type Server struct {
	Cache   Syncer
	Engine  Recommender
	Journal Journal
}

func New(cache Syncer, engine Recommender, j Journal) *Server {
	return &Server{
		Cache:   cache,
		Engine:  engine,
		Journal: j,
	}
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.routes())
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /update", s.handleUpdate)
	mux.HandleFunc("GET /recommendations", s.handleRecommendations)
	mux.HandleFunc("GET /api/syncs", s.handleSyncs)
	return mux
}
