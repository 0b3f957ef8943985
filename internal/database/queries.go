// internal/database/queries.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Error definitions
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Article represents a stored news article with its rating state.
// Exactly one of the following holds for every row: rated (is_rated=1,
// rating_failed=0), pending (is_rated=0, rating_failed=1), or filtered
// (is_rated=1, rating_failed=0, score NULL, excluded_reason set).
type Article struct {
	ID               int64
	GUID             string
	Headline         string
	Summary          string
	SourceURL        string
	SourceName       string
	ImageURL         string
	PublishedAt      *time.Time
	FetchedAt        time.Time
	Category         string
	Region           string
	HopefulnessScore *int
	IsRated          bool
	RatingFailed     bool
	ExcludedReason   string
	CreatedAt        time.Time
}

// RatingUpdate carries the terminal state for a previously pending article.
type RatingUpdate struct {
	ID             int64
	Score          *int
	ExcludedReason string
	IsRated        bool
	RatingFailed   bool
}

// NameCount is a taxonomy value with its article count.
type NameCount struct {
	Name  string
	Count int64
}

// ListOptions narrows the public article listing.
type ListOptions struct {
	MinScore int
	Category string
	Region   string
	Limit    int
	Offset   int
}

const articleColumns = `id, guid, headline, summary, source_url, source_name,
		image_url, published_at, fetched_at, category, region,
		hopefulness_score, is_rated, rating_failed, excluded_reason, created_at`

// GetSetting retrieves a setting value with type checking
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?",
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// GetSettingInt retrieves and parses an integer setting
func (db *DB) GetSettingInt(ctx context.Context, key string) (int, error) {
	var value string
	var valueType string
	err := db.QueryRowContext(ctx,
		"SELECT value, type FROM settings WHERE key = ?",
		key,
	).Scan(&value, &valueType)

	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if valueType != "int" {
		return 0, ErrInvalidInput
	}

	var intValue int
	_, err = fmt.Sscanf(value, "%d", &intValue)
	return intValue, err
}

// UpdateSetting updates a setting with upsert semantics
func (db *DB) UpdateSetting(ctx context.Context, key, value, valueType string) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value, type, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		type = excluded.type,
		updated_at = CURRENT_TIMESTAMP`,
		key, value, valueType,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistingGUIDs returns the subset of guids already present in storage.
// Queries are chunked to stay under SQLite's bound-parameter limit.
func (db *DB) ExistingGUIDs(ctx context.Context, guids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	const chunkSize = 500

	for start := 0; start < len(guids); start += chunkSize {
		end := start + chunkSize
		if end > len(guids) {
			end = len(guids)
		}
		chunk := guids[start:end]

		placeholders := make([]byte, 0, 2*len(chunk))
		args := make([]interface{}, 0, len(chunk))
		for i, g := range chunk {
			if i > 0 {
				placeholders = append(placeholders, ',')
			}
			placeholders = append(placeholders, '?')
			args = append(args, g)
		}

		rows, err := db.QueryContext(ctx,
			"SELECT guid FROM articles WHERE guid IN ("+string(placeholders)+")",
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("error querying existing guids: %w", err)
		}

		for rows.Next() {
			var guid string
			if err := rows.Scan(&guid); err != nil {
				rows.Close()
				return nil, err
			}
			existing[guid] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return existing, nil
}

// InsertArticles stores a batch of articles in a single transaction.
// Rows whose guid already exists are skipped, keeping ingestion idempotent.
func (db *DB) InsertArticles(ctx context.Context, articles []*Article) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO articles (
		guid, headline, summary, source_url, source_name, image_url,
		published_at, fetched_at, category, region,
		hopefulness_score, is_rated, rating_failed, excluded_reason
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(guid) DO NOTHING
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range articles {
		fetchedAt := a.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now().UTC()
		}
		_, err = stmt.ExecContext(ctx,
			a.GUID,
			a.Headline,
			nullIfEmpty(a.Summary),
			a.SourceURL,
			a.SourceName,
			nullIfEmpty(a.ImageURL),
			nullableTime(a.PublishedAt),
			fetchedAt,
			nullIfEmpty(a.Category),
			nullIfEmpty(a.Region),
			nullableInt(a.HopefulnessScore),
			a.IsRated,
			a.RatingFailed,
			nullIfEmpty(a.ExcludedReason),
		)
		if err != nil {
			return fmt.Errorf("error inserting article %s: %w", a.GUID, err)
		}
	}

	return tx.Commit()
}

// RatingFailed returns up to limit pending articles, most recent first.
func (db *DB) RatingFailed(ctx context.Context, limit int) ([]Article, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+articleColumns+`
		FROM articles
		WHERE rating_failed = 1
		ORDER BY published_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ApplyRatingUpdates commits a set of rating state transitions atomically.
func (db *DB) ApplyRatingUpdates(ctx context.Context, updates []RatingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE articles SET
		hopefulness_score = ?,
		excluded_reason = ?,
		is_rated = ?,
		rating_failed = ?
		WHERE id = ?`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range updates {
		_, err = stmt.ExecContext(ctx,
			nullableInt(u.Score),
			nullIfEmpty(u.ExcludedReason),
			u.IsRated,
			u.RatingFailed,
			u.ID,
		)
		if err != nil {
			return fmt.Errorf("error updating article %d: %w", u.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteOlderThan removes articles published before the cutoff.
func (db *DB) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		"DELETE FROM articles WHERE published_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListArticles returns the public feed page and the total match count.
// Only rated, non-excluded articles at or above the score threshold are
// surfaced.
func (db *DB) ListArticles(ctx context.Context, opts ListOptions) ([]Article, int64, error) {
	where := "is_rated = 1 AND excluded_reason IS NULL AND hopefulness_score >= ?"
	args := []interface{}{opts.MinScore}

	if opts.Category != "" {
		where += " AND category = ?"
		args = append(args, opts.Category)
	}
	if opts.Region != "" {
		where += " AND region = ?"
		args = append(args, opts.Region)
	}

	var total int64
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + articleColumns + `
		FROM articles
		WHERE ` + where + `
		ORDER BY hopefulness_score DESC, published_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// GetArticle retrieves a single article by id
func (db *DB) GetArticle(ctx context.Context, id int64) (*Article, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id,
	)

	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CategoryCounts returns categories with article counts, most populous first
func (db *DB) CategoryCounts(ctx context.Context) ([]NameCount, error) {
	return db.nameCounts(ctx, "category")
}

// RegionCounts returns regions with article counts, most populous first
func (db *DB) RegionCounts(ctx context.Context) ([]NameCount, error) {
	return db.nameCounts(ctx, "region")
}

func (db *DB) nameCounts(ctx context.Context, column string) ([]NameCount, error) {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM articles
		WHERE %s IS NOT NULL
		GROUP BY %s
		ORDER BY COUNT(*) DESC`, column, column, column),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, nc)
	}
	return counts, rows.Err()
}

// ArticleStats returns the number of articles published today and overall.
func (db *DB) ArticleStats(ctx context.Context) (today, total int64, err error) {
	todayStart := time.Now().UTC().Truncate(24 * time.Hour)

	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE published_at >= ?",
		todayStart,
	).Scan(&today)
	if err != nil {
		return 0, 0, err
	}

	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&total)
	if err != nil {
		return 0, 0, err
	}
	return today, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var a Article
	var summary, imageURL, category, region, excludedReason sql.NullString
	var publishedAt sql.NullTime
	var score sql.NullInt64

	err := row.Scan(
		&a.ID, &a.GUID, &a.Headline, &summary, &a.SourceURL, &a.SourceName,
		&imageURL, &publishedAt, &a.FetchedAt, &category, &region,
		&score, &a.IsRated, &a.RatingFailed, &excludedReason, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Summary = summary.String
	a.ImageURL = imageURL.String
	a.Category = category.String
	a.Region = region.String
	a.ExcludedReason = excludedReason.String
	if publishedAt.Valid {
		t := publishedAt.Time
		a.PublishedAt = &t
	}
	if score.Valid {
		s := int(score.Int64)
		a.HopefulnessScore = &s
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullableInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
