// internal/database/queries_test.go
package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testArticle(guid string) *Article {
	now := time.Now()
	return &Article{
		GUID:        guid,
		Headline:    "Headline " + guid,
		Summary:     "Summary for " + guid,
		SourceURL:   "https://example.com/" + guid,
		SourceName:  "wire",
		PublishedAt: &now,
		FetchedAt:   now,
	}
}

func ratedArticle(guid string, score int) *Article {
	a := testArticle(guid)
	a.IsRated = true
	a.HopefulnessScore = &score
	return a
}

func TestDefaultSettings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	threshold, err := db.GetSettingInt(ctx, "rating_threshold")
	if err != nil {
		t.Fatalf("GetSettingInt failed: %v", err)
	}
	if threshold != 65 {
		t.Errorf("rating_threshold = %d, want 65", threshold)
	}

	retention, err := db.GetSettingInt(ctx, "retention_days")
	if err != nil {
		t.Fatalf("GetSettingInt failed: %v", err)
	}
	if retention != 7 {
		t.Errorf("retention_days = %d, want 7", retention)
	}
}

func TestUpdateSetting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpdateSetting(ctx, "rating_threshold", "50", "int"); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	got, err := db.GetSettingInt(ctx, "rating_threshold")
	if err != nil {
		t.Fatalf("GetSettingInt failed: %v", err)
	}
	if got != 50 {
		t.Errorf("rating_threshold = %d, want 50", got)
	}
}

func TestInsertArticlesIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := testArticle("guid-1")
	if err := db.InsertArticles(ctx, []*Article{first}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// Re-inserting the same guid must not error or duplicate.
	dup := testArticle("guid-1")
	dup.Headline = "Changed headline"
	if err := db.InsertArticles(ctx, []*Article{dup, testArticle("guid-2")}); err != nil {
		t.Fatalf("Second insert failed: %v", err)
	}

	_, total, err := db.ListArticles(ctx, ListOptions{MinScore: 0, Limit: 10})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Unrated articles surfaced in listing, total = %d", total)
	}

	existing, err := db.ExistingGUIDs(ctx, []string{"guid-1", "guid-2", "guid-3"})
	if err != nil {
		t.Fatalf("ExistingGUIDs failed: %v", err)
	}
	if len(existing) != 2 {
		t.Errorf("ExistingGUIDs found %d, want 2", len(existing))
	}
	if _, ok := existing["guid-3"]; ok {
		t.Error("ExistingGUIDs reported an unknown guid")
	}
}

func TestExistingGUIDsLargeBatch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var articles []*Article
	var guids []string
	for i := 0; i < 600; i++ {
		guid := fmt.Sprintf("guid-%d", i)
		articles = append(articles, testArticle(guid))
		guids = append(guids, guid)
	}
	if err := db.InsertArticles(ctx, articles); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	existing, err := db.ExistingGUIDs(ctx, guids)
	if err != nil {
		t.Fatalf("ExistingGUIDs failed: %v", err)
	}
	if len(existing) != 600 {
		t.Errorf("ExistingGUIDs found %d, want 600", len(existing))
	}
}

func TestRatingFailedAndUpdates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pending := testArticle("pending-1")
	pending.RatingFailed = true
	filtered := testArticle("filtered-1")
	filtered.IsRated = true
	filtered.ExcludedReason = "keyword_violence:killed"
	if err := db.InsertArticles(ctx, []*Article{pending, filtered, ratedArticle("rated-1", 80)}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	failed, err := db.RatingFailed(ctx, 10)
	if err != nil {
		t.Fatalf("RatingFailed failed: %v", err)
	}
	if len(failed) != 1 || failed[0].GUID != "pending-1" {
		t.Fatalf("RatingFailed = %+v, want only pending-1", failed)
	}

	score := 72
	err = db.ApplyRatingUpdates(ctx, []RatingUpdate{
		{ID: failed[0].ID, Score: &score, IsRated: true},
	})
	if err != nil {
		t.Fatalf("ApplyRatingUpdates failed: %v", err)
	}

	failed, err = db.RatingFailed(ctx, 10)
	if err != nil {
		t.Fatalf("RatingFailed failed: %v", err)
	}
	if len(failed) != 0 {
		t.Errorf("Pending after update = %d, want 0", len(failed))
	}

	if _, err := db.GetArticle(ctx, 0); err != ErrNotFound {
		t.Errorf("GetArticle(0) error = %v, want ErrNotFound", err)
	}
}

func TestListArticlesOrderingAndPaging(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.InsertArticles(ctx, []*Article{
		ratedArticle("a", 70),
		ratedArticle("b", 95),
		ratedArticle("c", 80),
		ratedArticle("d", 40),
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	articles, total, err := db.ListArticles(ctx, ListOptions{MinScore: 65, Limit: 2})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Total = %d, want 3", total)
	}
	if len(articles) != 2 || articles[0].GUID != "b" || articles[1].GUID != "c" {
		t.Errorf("Page = %+v, want b then c", articles)
	}

	articles, _, err = db.ListArticles(ctx, ListOptions{MinScore: 65, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(articles) != 1 || articles[0].GUID != "a" {
		t.Errorf("Second page = %+v, want a", articles)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -10)
	stale := ratedArticle("stale", 80)
	stale.PublishedAt = &old
	if err := db.InsertArticles(ctx, []*Article{stale, ratedArticle("fresh", 80)}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	deleted, err := db.DeleteOlderThan(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Deleted = %d, want 1", deleted)
	}

	articles, _, err := db.ListArticles(ctx, ListOptions{MinScore: 0, Limit: 10})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(articles) != 1 || articles[0].GUID != "fresh" {
		t.Errorf("Remaining = %+v, want fresh", articles)
	}
}

func TestArticleStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -3)
	past := ratedArticle("past", 80)
	past.PublishedAt = &old
	if err := db.InsertArticles(ctx, []*Article{past, ratedArticle("today", 80)}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	today, total, err := db.ArticleStats(ctx)
	if err != nil {
		t.Fatalf("ArticleStats failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Total = %d, want 2", total)
	}
	if today != 1 {
		t.Errorf("Today = %d, want 1", today)
	}
}

func TestCategoryCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := ratedArticle("a", 80)
	a.Category = "science"
	b := ratedArticle("b", 80)
	b.Category = "science"
	c := ratedArticle("c", 80)
	c.Category = "health"
	d := ratedArticle("d", 80) // no category stays out of the counts
	if err := db.InsertArticles(ctx, []*Article{a, b, c, d}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	counts, err := db.CategoryCounts(ctx)
	if err != nil {
		t.Fatalf("CategoryCounts failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("Got %d categories, want 2", len(counts))
	}
	if counts[0].Name != "science" || counts[0].Count != 2 {
		t.Errorf("Top category = %+v, want science with 2", counts[0])
	}
}
