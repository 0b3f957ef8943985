// internal/server/server.go
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"brightworld/internal/database"
	"brightworld/internal/ingest"
	"brightworld/internal/rating"
)

// Pipeline lets the API trigger the background sweeps on demand.
type Pipeline interface {
	Ingest(ctx context.Context) (ingest.Stats, error)
	Retry(ctx context.Context) error
}

// UsageReporter exposes the current rating quota state.
type UsageReporter interface {
	Usage() rating.Usage
}

type Server struct {
	db       *database.DB
	logger   *log.Logger
	pipeline Pipeline
	usage    UsageReporter
	mux      *http.ServeMux
}

func NewServer(db *database.DB, logger *log.Logger, pipeline Pipeline, usage UsageReporter) *Server {
	s := &Server{
		db:       db,
		logger:   logger,
		pipeline: pipeline,
		usage:    usage,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/articles", s.handleListArticles)
	s.mux.HandleFunc("GET /api/articles/{id}", s.handleGetArticle)
	s.mux.HandleFunc("GET /api/categories", s.handleCategories)
	s.mux.HandleFunc("GET /api/regions", s.handleRegions)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/usage", s.handleUsage)
	s.mux.HandleFunc("POST /api/fetch", s.handleFetch)
	s.mux.HandleFunc("POST /api/retry", s.handleRetry)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}
