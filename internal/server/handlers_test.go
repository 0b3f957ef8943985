// internal/server/handlers_test.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"brightworld/internal/database"
	"brightworld/internal/ingest"
	"brightworld/internal/rating"
)

type fakePipeline struct {
	stats    ingest.Stats
	err      error
	retries  int
	ingests  int
	retryErr error
}

func (f *fakePipeline) Ingest(ctx context.Context) (ingest.Stats, error) {
	f.ingests++
	return f.stats, f.err
}

func (f *fakePipeline) Retry(ctx context.Context) error {
	f.retries++
	return f.retryErr
}

type fakeUsage struct{ usage rating.Usage }

func (f *fakeUsage) Usage() rating.Usage { return f.usage }

func setupTestServer(t *testing.T) (*Server, *database.DB, *fakePipeline) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), database.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pipeline := &fakePipeline{stats: ingest.Stats{Fetched: 12, New: 3}}
	usage := &fakeUsage{usage: rating.Usage{Requests: 4, Limit: 20, Remaining: 16}}
	return NewServer(db, log.New(io.Discard, "", 0), pipeline, usage), db, pipeline
}

func seedArticle(t *testing.T, db *database.DB, guid string, score int, category string) {
	t.Helper()
	now := time.Now()
	art := &database.Article{
		GUID:             guid,
		Headline:         "Headline for " + guid,
		Summary:          "Summary text.",
		SourceURL:        fmt.Sprintf("https://example.com/%s", guid),
		SourceName:       "wire",
		PublishedAt:      &now,
		FetchedAt:        now,
		Category:         category,
		IsRated:          true,
		HopefulnessScore: &score,
	}
	if err := db.InsertArticles(context.Background(), []*database.Article{art}); err != nil {
		t.Fatalf("Failed to seed article %s: %v", guid, err)
	}
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	w := doRequest(t, srv, "GET", "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", w.Code)
	}
}

func TestListArticlesDefaultThreshold(t *testing.T) {
	srv, db, _ := setupTestServer(t)
	seedArticle(t, db, "high", 80, "community")
	seedArticle(t, db, "low", 50, "community")

	w := doRequest(t, srv, "GET", "/api/articles")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var out articleList
	decode(t, w, &out)
	if out.Total != 1 || len(out.Articles) != 1 {
		t.Fatalf("Got %d articles (total %d), want 1", len(out.Articles), out.Total)
	}
	if out.Articles[0].Score != 80 {
		t.Errorf("Score = %d, want 80", out.Articles[0].Score)
	}
}

func TestListArticlesPaginationFields(t *testing.T) {
	srv, db, _ := setupTestServer(t)
	seedArticle(t, db, "a", 80, "community")
	seedArticle(t, db, "b", 75, "community")
	seedArticle(t, db, "c", 70, "community")

	var first articleList
	decode(t, doRequest(t, srv, "GET", "/api/articles?limit=2"), &first)
	if first.Limit != 2 || first.Offset != 0 {
		t.Errorf("Page fields = limit %d offset %d, want 2 and 0", first.Limit, first.Offset)
	}
	if !first.HasMore {
		t.Error("Expected has_more on the first page of 3 articles")
	}

	var second articleList
	decode(t, doRequest(t, srv, "GET", "/api/articles?limit=2&offset=2"), &second)
	if second.Offset != 2 {
		t.Errorf("Offset = %d, want 2", second.Offset)
	}
	if second.HasMore {
		t.Error("Expected has_more false on the last page")
	}
	if len(second.Articles) != 1 {
		t.Errorf("Last page has %d articles, want 1", len(second.Articles))
	}
}

func TestListArticlesMinScoreOverride(t *testing.T) {
	srv, db, _ := setupTestServer(t)
	seedArticle(t, db, "high", 80, "community")
	seedArticle(t, db, "low", 50, "community")

	w := doRequest(t, srv, "GET", "/api/articles?min_score=40")
	var out articleList
	decode(t, w, &out)
	if out.Total != 2 {
		t.Errorf("Total = %d, want 2", out.Total)
	}
}

func TestListArticlesCategoryFilter(t *testing.T) {
	srv, db, _ := setupTestServer(t)
	seedArticle(t, db, "a", 80, "science")
	seedArticle(t, db, "b", 80, "community")

	w := doRequest(t, srv, "GET", "/api/articles?category=science")
	var out articleList
	decode(t, w, &out)
	if out.Total != 1 || out.Articles[0].Category != "science" {
		t.Errorf("Got %+v, want one science article", out.Articles)
	}
}

func TestListArticlesBadParams(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	for _, target := range []string{
		"/api/articles?limit=0",
		"/api/articles?limit=500",
		"/api/articles?limit=abc",
		"/api/articles?offset=-1",
		"/api/articles?min_score=101",
	} {
		if w := doRequest(t, srv, "GET", target); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestGetArticle(t *testing.T) {
	srv, db, _ := setupTestServer(t)
	seedArticle(t, db, "only", 75, "health")

	var listed articleList
	decode(t, doRequest(t, srv, "GET", "/api/articles"), &listed)
	if len(listed.Articles) != 1 {
		t.Fatalf("Seeded article not listed")
	}

	w := doRequest(t, srv, "GET", fmt.Sprintf("/api/articles/%d", listed.Articles[0].ID))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var got apiArticle
	decode(t, w, &got)
	if got.Headline != "Headline for only" {
		t.Errorf("Headline = %q", got.Headline)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	if w := doRequest(t, srv, "GET", "/api/articles/9999"); w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/articles/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
}

func TestCategories(t *testing.T) {
	srv, db, _ := setupTestServer(t)
	seedArticle(t, db, "a", 80, "science")
	seedArticle(t, db, "b", 80, "science")
	seedArticle(t, db, "c", 80, "health")

	w := doRequest(t, srv, "GET", "/api/categories")
	var out []nameCount
	decode(t, w, &out)
	if len(out) != 2 {
		t.Fatalf("Got %d categories, want 2", len(out))
	}
	if out[0].Name != "science" || out[0].Count != 2 {
		t.Errorf("Top category = %+v, want science with count 2", out[0])
	}
}

func TestStats(t *testing.T) {
	srv, db, _ := setupTestServer(t)
	seedArticle(t, db, "a", 80, "science")

	w := doRequest(t, srv, "GET", "/api/stats")
	var out map[string]int64
	decode(t, w, &out)
	if out["articles_total"] != 1 {
		t.Errorf("articles_total = %d, want 1", out["articles_total"])
	}
}

func TestUsage(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	w := doRequest(t, srv, "GET", "/api/usage")
	var out rating.Usage
	decode(t, w, &out)
	if out.Remaining != 16 {
		t.Errorf("Remaining = %d, want 16", out.Remaining)
	}
}

func TestFetchEndpoint(t *testing.T) {
	srv, _, pipeline := setupTestServer(t)
	w := doRequest(t, srv, "POST", "/api/fetch")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var out ingest.Stats
	decode(t, w, &out)
	if out.Fetched != 12 || out.New != 3 {
		t.Errorf("Stats = %+v, want fetched 12, new 3", out)
	}
	if pipeline.ingests != 1 {
		t.Errorf("Pipeline ingests = %d, want 1", pipeline.ingests)
	}

	if w := doRequest(t, srv, "GET", "/api/fetch"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/fetch status = %d, want 405", w.Code)
	}
}

func TestRetryEndpoint(t *testing.T) {
	srv, _, pipeline := setupTestServer(t)
	w := doRequest(t, srv, "POST", "/api/retry")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if pipeline.retries != 1 {
		t.Errorf("Pipeline retries = %d, want 1", pipeline.retries)
	}
}
