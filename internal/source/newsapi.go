// internal/source/newsapi.go
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// APIAdapter fetches candidates from a NewsAPI-style JSON headline
// endpoint (a top-level "articles" array).
type APIAdapter struct {
	name   string
	url    string
	apiKey string
	client *http.Client
	logger *log.Logger
}

func NewAPIAdapter(name, url, apiKey string, client *http.Client, logger *log.Logger) *APIAdapter {
	return &APIAdapter{
		name:   name,
		url:    url,
		apiKey: apiKey,
		client: client,
		logger: logger,
	}
}

func (a *APIAdapter) Name() string { return a.name }

type apiResponse struct {
	Status   string       `json:"status"`
	Articles []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// Fetch calls the headline endpoint and normalizes the response.
func (a *APIAdapter) Fetch(ctx context.Context) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Api-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("error decoding headlines: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Articles))
	for _, art := range payload.Articles {
		if art.Title == "" || art.URL == "" {
			continue
		}

		var published *time.Time
		if art.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, art.PublishedAt); err == nil {
				published = &t
			}
		}

		name := a.name
		if art.Source.Name != "" {
			name = art.Source.Name
		}

		candidates = append(candidates, Candidate{
			Headline:   art.Title,
			Summary:    art.Description,
			Link:       art.URL,
			Published:  published,
			GUID:       art.URL,
			SourceName: name,
			ImageURL:   art.URLToImage,
		})
	}
	return candidates, nil
}
