// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"brightworld/internal/database"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// apiArticle is the public wire shape of a stored article.
type apiArticle struct {
	ID          int64      `json:"id"`
	Headline    string     `json:"headline"`
	Summary     string     `json:"summary"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Category    string     `json:"category,omitempty"`
	Region      string     `json:"region,omitempty"`
	Score       int        `json:"score"`
}

type articleList struct {
	Articles []apiArticle `json:"articles"`
	Total    int64        `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
	HasMore  bool         `json:"has_more"`
}

type nameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func toAPIArticle(a database.Article) apiArticle {
	out := apiArticle{
		ID:          a.ID,
		Headline:    a.Headline,
		Summary:     a.Summary,
		URL:         a.SourceURL,
		Source:      a.SourceName,
		ImageURL:    a.ImageURL,
		PublishedAt: a.PublishedAt,
		Category:    a.Category,
		Region:      a.Region,
	}
	if a.HopefulnessScore != nil {
		out.Score = *a.HopefulnessScore
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scoreThreshold reads the configured minimum score, falling back to the
// schema default when the setting is unreadable.
func (s *Server) scoreThreshold(r *http.Request) int {
	threshold, err := s.db.GetSettingInt(r.Context(), "rating_threshold")
	if err != nil {
		return 65
	}
	return threshold
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := database.ListOptions{
		MinScore: s.scoreThreshold(r),
		Category: q.Get("category"),
		Region:   q.Get("region"),
		Limit:    defaultPageSize,
	}

	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			s.writeError(w, http.StatusBadRequest, "min_score must be between 0 and 100")
			return
		}
		opts.MinScore = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "offset must not be negative")
			return
		}
		opts.Offset = n
	}

	articles, total, err := s.db.ListArticles(r.Context(), opts)
	if err != nil {
		s.logger.Printf("Listing articles failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := articleList{
		Articles: make([]apiArticle, 0, len(articles)),
		Total:    total,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
		HasMore:  int64(opts.Offset+len(articles)) < total,
	}
	for _, a := range articles {
		out.Articles = append(out.Articles, toAPIArticle(a))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	article, err := s.db.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "article not found")
			return
		}
		s.logger.Printf("Loading article %d failed: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIArticle(*article))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.handleCounts(w, r, s.db.CategoryCounts)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	s.handleCounts(w, r, s.db.RegionCounts)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request,
	query func(ctx context.Context) ([]database.NameCount, error)) {
	counts, err := query(r.Context())
	if err != nil {
		s.logger.Printf("Counting taxonomy failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]nameCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, nameCount{Name: c.Name, Count: c.Count})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	today, total, err := s.db.ArticleStats(r.Context())
	if err != nil {
		s.logger.Printf("Loading stats failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{
		"articles_today": today,
		"articles_total": total,
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.usage.Usage())
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	stats, err := s.pipeline.Ingest(r.Context())
	if err != nil {
		s.logger.Printf("Manual ingestion failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Retry(r.Context()); err != nil {
		s.logger.Printf("Manual retry failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "retry failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
