// internal/ingest/ingest.go
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"brightworld/internal/database"
	"brightworld/internal/filter"
	"brightworld/internal/rating"
	"brightworld/internal/source"
)

// retryBatchLimit caps how many pending articles a retry sweep reloads.
const retryBatchLimit = 25

// Rater scores article batches against a daily quota. *rating.Client is the
// production implementation.
type Rater interface {
	CanRate() bool
	Remaining() int
	BatchSize() int
	RateBatch(ctx context.Context, items []rating.Item) []rating.Result
}

// ImageResolver finds a lead image for an article page. *scrape.Resolver is
// the production implementation.
type ImageResolver interface {
	Resolve(ctx context.Context, pageURL string) string
}

// Stats summarizes one ingestion run.
type Stats struct {
	Fetched int `json:"fetched"`
	New     int `json:"new"`
}

// Orchestrator runs the fetch, filter, rate, persist pipeline.
type Orchestrator struct {
	db       *database.DB
	adapters []source.Adapter
	filter   *filter.Engine
	rater    Rater
	resolver ImageResolver
	pacer    *rating.Pacer
	logger   *log.Logger
}

func NewOrchestrator(db *database.DB, adapters []source.Adapter, f *filter.Engine,
	rater Rater, resolver ImageResolver, pacer *rating.Pacer, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		db:       db,
		adapters: adapters,
		filter:   f,
		rater:    rater,
		resolver: resolver,
		pacer:    pacer,
		logger:   logger,
	}
}

// Ingest fetches every configured source once, filters and rates the new
// articles, and persists the whole run in a single transaction. Articles
// that could not be rated before the quota ran out are stored pending for
// the retry sweep.
func (o *Orchestrator) Ingest(ctx context.Context) (Stats, error) {
	var stats Stats

	candidates := o.fetchAll(ctx)
	stats.Fetched = len(candidates)
	if len(candidates) == 0 {
		return stats, nil
	}

	fresh, err := o.dropKnown(ctx, candidates)
	if err != nil {
		return stats, fmt.Errorf("deduplicating candidates: %w", err)
	}
	if len(fresh) == 0 {
		return stats, nil
	}

	now := time.Now()
	var filtered, passed []*database.Article
	for _, c := range fresh {
		art := newArticle(c, now)
		art.Category = filter.Classify(c.Headline, c.Summary)
		if ok, reason := o.filter.Filter(c.Headline, c.Summary); !ok {
			art.IsRated = true
			art.ExcludedReason = reason
			filtered = append(filtered, art)
			continue
		}
		passed = append(passed, art)
	}

	maxToRate := o.rater.Remaining() * o.rater.BatchSize()
	toRate, overflow := selectBalanced(passed, maxToRate)
	for _, art := range overflow {
		art.RatingFailed = true
	}

	rated := o.rateArticles(ctx, toRate)

	all := make([]*database.Article, 0, len(filtered)+len(rated)+len(overflow))
	all = append(all, filtered...)
	all = append(all, rated...)
	all = append(all, overflow...)

	o.resolveImages(ctx, all)

	if err := o.db.InsertArticles(ctx, all); err != nil {
		return stats, fmt.Errorf("persisting articles: %w", err)
	}
	stats.New = len(all)

	o.logger.Printf("Ingestion complete: %d fetched, %d new, %d filtered, %d pending",
		stats.Fetched, stats.New, len(filtered), len(overflow))
	return stats, nil
}

// fetchAll collects candidates from every adapter. A failing source is
// logged and skipped so one dead feed cannot sink the run.
func (o *Orchestrator) fetchAll(ctx context.Context) []source.Candidate {
	var all []source.Candidate
	for _, adapter := range o.adapters {
		items, err := adapter.Fetch(ctx)
		if err != nil {
			o.logger.Printf("Fetching %s failed: %v", adapter.Name(), err)
			continue
		}
		all = append(all, items...)
	}
	return all
}

// dropKnown removes candidates already stored, and duplicates within the
// run itself.
func (o *Orchestrator) dropKnown(ctx context.Context, candidates []source.Candidate) ([]source.Candidate, error) {
	guids := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	var unique []source.Candidate
	for _, c := range candidates {
		if c.GUID == "" {
			continue
		}
		if _, ok := seen[c.GUID]; ok {
			continue
		}
		seen[c.GUID] = struct{}{}
		guids = append(guids, c.GUID)
		unique = append(unique, c)
	}

	known, err := o.db.ExistingGUIDs(ctx, guids)
	if err != nil {
		return nil, err
	}

	fresh := unique[:0]
	for _, c := range unique {
		if _, ok := known[c.GUID]; ok {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, nil
}

// rateArticles scores articles in quota-sized chunks, pausing between calls
// to stay under the provider's rate limit. Articles left unscored by a
// failed or skipped call are marked pending.
func (o *Orchestrator) rateArticles(ctx context.Context, articles []*database.Article) []*database.Article {
	batchSize := o.rater.BatchSize()
	for start := 0; start < len(articles); start += batchSize {
		if !o.rater.CanRate() {
			for _, art := range articles[start:] {
				art.RatingFailed = true
			}
			o.logger.Printf("Rating quota exhausted, %d articles left pending", len(articles)-start)
			break
		}

		end := start + batchSize
		if end > len(articles) {
			end = len(articles)
		}
		chunk := articles[start:end]

		if start > 0 {
			o.pacer.Pause(ctx)
		}
		results := o.rater.RateBatch(ctx, toItems(chunk))
		for i, art := range chunk {
			applyResult(art, results[i])
		}
	}
	return articles
}

// resolveImages fills in a lead image for articles whose source provided
// none. Best-effort, skipped entirely when no resolver is configured.
func (o *Orchestrator) resolveImages(ctx context.Context, articles []*database.Article) {
	if o.resolver == nil {
		return
	}
	for _, art := range articles {
		if art.ImageURL != "" || art.SourceURL == "" {
			continue
		}
		art.ImageURL = o.resolver.Resolve(ctx, art.SourceURL)
	}
}

// Retry reprocesses pending articles once more quota is available. The
// sweep is a no-op while the quota is exhausted. Articles the keyword
// filter now rejects are finalized as excluded without spending a rating
// call.
func (o *Orchestrator) Retry(ctx context.Context) error {
	if !o.rater.CanRate() {
		return nil
	}

	pending, err := o.db.RatingFailed(ctx, retryBatchLimit)
	if err != nil {
		return fmt.Errorf("loading pending articles: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	var updates []database.RatingUpdate
	var candidates []*database.Article
	for i := range pending {
		art := &pending[i]
		if ok, reason := o.filter.Filter(art.Headline, art.Summary); !ok {
			updates = append(updates, database.RatingUpdate{
				ID:             art.ID,
				ExcludedReason: reason,
				IsRated:        true,
			})
			continue
		}
		candidates = append(candidates, art)
	}

	toRate, _ := selectBalanced(candidates, o.rater.Remaining()*o.rater.BatchSize())
	rated := 0
	for start := 0; start < len(toRate); start += o.rater.BatchSize() {
		if !o.rater.CanRate() {
			break
		}
		end := start + o.rater.BatchSize()
		if end > len(toRate) {
			end = len(toRate)
		}
		chunk := toRate[start:end]

		if start > 0 {
			o.pacer.Pause(ctx)
		}
		results := o.rater.RateBatch(ctx, toItems(chunk))
		for i, art := range chunk {
			r := results[i]
			switch {
			case r.ExcludedReason != "":
				updates = append(updates, database.RatingUpdate{
					ID:             art.ID,
					Score:          r.Score,
					ExcludedReason: r.ExcludedReason,
					IsRated:        true,
				})
				rated++
			case r.Score != nil:
				updates = append(updates, database.RatingUpdate{
					ID:      art.ID,
					Score:   r.Score,
					IsRated: true,
				})
				rated++
			}
			// Still-failed articles keep their pending state untouched.
		}
	}

	if len(updates) == 0 {
		return nil
	}
	if err := o.db.ApplyRatingUpdates(ctx, updates); err != nil {
		return fmt.Errorf("applying rating updates: %w", err)
	}
	o.logger.Printf("Retry sweep: %d pending, %d rated, %d resolved", len(pending), rated, len(updates))
	return nil
}

// Cleanup deletes articles published before the retention window.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	days, err := o.db.GetSettingInt(ctx, "retention_days")
	if err != nil || days <= 0 {
		days = 7
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := o.db.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("deleting expired articles: %w", err)
	}
	if deleted > 0 {
		o.logger.Printf("Retention sweep removed %d articles older than %d days", deleted, days)
	}
	return nil
}

func newArticle(c source.Candidate, fetchedAt time.Time) *database.Article {
	return &database.Article{
		GUID:        c.GUID,
		Headline:    c.Headline,
		Summary:     c.Summary,
		SourceURL:   c.Link,
		SourceName:  c.SourceName,
		ImageURL:    c.ImageURL,
		PublishedAt: c.Published,
		FetchedAt:   fetchedAt,
	}
}

func toItems(articles []*database.Article) []rating.Item {
	items := make([]rating.Item, len(articles))
	for i, art := range articles {
		items[i] = rating.Item{
			Title:   art.Headline,
			Summary: art.Summary,
			Source:  art.SourceName,
		}
	}
	return items
}

// applyResult maps one rating outcome onto the article's stored state.
// Model-excluded articles keep their score (the rubric returns 0 with an
// exclusion), unlike keyword-filtered ones which never had a call spent.
func applyResult(art *database.Article, r rating.Result) {
	switch {
	case r.ExcludedReason != "":
		art.IsRated = true
		art.ExcludedReason = r.ExcludedReason
		art.HopefulnessScore = r.Score
	case r.Score != nil:
		art.IsRated = true
		art.HopefulnessScore = r.Score
	default:
		art.RatingFailed = true
	}
}
