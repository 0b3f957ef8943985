// internal/scrape/ogimage.go
package scrape

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Pages are read up to this many bytes; og:image tags live in the head.
const maxPageBytes = 50 * 1024

const defaultTimeout = 10 * time.Second

// Resolver fetches a page and extracts its og:image meta tag.
// Strictly best-effort: every failure yields an empty string, never an
// error, so image resolution can never block article persistence.
type Resolver struct {
	client  *http.Client
	logger  *log.Logger
	timeout time.Duration
}

func NewResolver(client *http.Client, logger *log.Logger) *Resolver {
	return &Resolver{
		client:  client,
		logger:  logger,
		timeout: defaultTimeout,
	}
}

// Resolve returns the page's og:image URL, or "" when none is found.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "BrightWorld/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Printf("Image resolution failed for %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ""
	}

	if url, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && url != "" {
		return url
	}
	if url, ok := doc.Find(`meta[name="twitter:image"]`).Attr("content"); ok && url != "" {
		return url
	}
	return ""
}
