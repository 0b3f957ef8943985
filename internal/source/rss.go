// internal/source/rss.go
package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

const userAgent = "BrightWorld/1.0"

// Feeds larger than this are truncated before parsing.
const maxFeedBytes = 5 << 20

// RSSAdapter fetches candidates from a single RSS or Atom feed.
type RSSAdapter struct {
	name   string
	url    string
	parser *gofeed.Parser
	client *http.Client
	logger *log.Logger
}

func NewRSSAdapter(name, url string, client *http.Client, logger *log.Logger) *RSSAdapter {
	return &RSSAdapter{
		name:   name,
		url:    url,
		parser: gofeed.NewParser(),
		client: client,
		logger: logger,
	}
}

func (a *RSSAdapter) Name() string { return a.name }

// Fetch downloads and parses the feed, normalizing items to candidates.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	parsed, err := a.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("error parsing feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}

		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}

		candidates = append(candidates, Candidate{
			Headline:   item.Title,
			Summary:    item.Description,
			Link:       item.Link,
			Published:  published,
			GUID:       guid,
			SourceName: a.name,
			ImageURL:   extractImageURL(item),
		})
	}
	return candidates, nil
}

// extractImageURL pulls a feed-provided image from an item, trying the
// channel image, media extensions and enclosures in turn.
func extractImageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	// media:content / media:thumbnail extensions
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			medium := content.Attrs["medium"]
			mimeType := content.Attrs["type"]
			if medium == "image" || strings.HasPrefix(mimeType, "image/") {
				if url := content.Attrs["url"]; url != "" {
					return url
				}
			}
		}
		// Fall back to the first media:content with a URL at all.
		for _, content := range media["content"] {
			if url := content.Attrs["url"]; url != "" {
				return url
			}
		}
		for _, thumb := range media["thumbnail"] {
			if url := thumb.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
