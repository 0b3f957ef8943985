// internal/rating/client.go
package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const modelName = "gemini-2.0-flash"

// Item is one article submitted for rating.
type Item struct {
	Title   string
	Summary string
	Source  string
}

// Result is the rating outcome for a single item. Score is nil when the
// item could not be rated (quota, transport or response problems).
// ExcludedReason carries hard exclusions decided by the model itself,
// e.g. "partisan_content".
type Result struct {
	Score          *int
	ExcludedReason string
	Rationale      string
}

// generator abstracts the raw model call so tests can substitute a fake.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Client rates articles through the Gemini API under a daily quota.
// One batched call consumes one quota request regardless of batch size.
// A single long-lived client is constructed at startup and shared by the
// ingest and retry sweeps.
type Client struct {
	gen       generator
	quota     *Quota
	batchSize int
	logger    *log.Logger
}

// Config holds rating client settings.
type Config struct {
	APIKey     string
	DailyLimit int
	BatchSize  int
}

// NewClient creates a rating client. A missing API key does not fail
// construction: every call then degrades to a per-item error result and
// articles stay pending for retry once a key is configured.
func NewClient(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	c := &Client{
		quota:     NewQuota(cfg.DailyLimit),
		batchSize: cfg.BatchSize,
		logger:    logger,
	}

	if cfg.APIKey == "" {
		c.gen = errGenerator{fmt.Errorf("GEMINI_API_KEY not configured")}
		return c, nil
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	model := gc.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
	}

	c.gen = &geminiGenerator{client: gc, model: model}
	return c, nil
}

// Close releases the underlying API client.
func (c *Client) Close() {
	if g, ok := c.gen.(*geminiGenerator); ok {
		g.client.Close()
	}
}

// CanRate reports whether another rating request fits in today's budget.
func (c *Client) CanRate() bool { return c.quota.CanRate() }

// Remaining returns the number of rating requests left today.
func (c *Client) Remaining() int { return c.quota.Remaining() }

// BatchSize returns the number of items sent per rating call.
func (c *Client) BatchSize() int { return c.batchSize }

// Usage returns a quota snapshot for observability.
func (c *Client) Usage() Usage { return c.quota.Snapshot() }

// RateBatch rates a batch of items with a single model call. The result
// slice always has the same length and order as the input. The budget
// slot is reserved up front and released again on transport or parse
// failure, so failed calls do not consume quota and concurrent sweeps
// cannot double-spend the final slot.
func (c *Client) RateBatch(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))
	if len(items) == 0 {
		return results
	}

	if !c.quota.Reserve() {
		c.logger.Printf("Rating quota exhausted, skipping batch of %d", len(items))
		for i := range results {
			results[i] = Result{Rationale: "Daily limit reached"}
		}
		return results
	}

	raw, err := c.gen.generate(ctx, buildBatchPrompt(items))
	if err != nil {
		c.quota.Release()
		c.logger.Printf("Rating call failed for batch of %d: %v", len(items), err)
		for i := range results {
			results[i] = Result{Rationale: "Batch error: " + err.Error()}
		}
		return results
	}

	parsed, err := parseBatchResponse(raw)
	if err != nil {
		c.quota.Release()
		c.logger.Printf("Error parsing rating response: %v", err)
		for i := range results {
			results[i] = Result{Rationale: "Batch error: " + err.Error()}
		}
		return results
	}

	usage := c.quota.Snapshot()
	c.logger.Printf("Rating API usage: %d/%d today (%d remaining)",
		usage.Requests, usage.Limit, usage.Remaining)

	for i := range items {
		if i >= len(parsed) {
			results[i] = Result{Rationale: "Missing from batch response"}
			continue
		}
		results[i] = parsed[i].toResult()
	}
	return results
}

// Rate rates a single item. Same quota semantics as a one-element batch.
func (c *Client) Rate(ctx context.Context, title, summary, source string) Result {
	return c.RateBatch(ctx, []Item{{Title: title, Summary: summary, Source: source}})[0]
}

// ratingPayload mirrors one element of the model's JSON response.
// Scores are decoded as floats since the model occasionally emits "72.0".
type ratingPayload struct {
	Score          *float64 `json:"score"`
	ExcludedReason *string  `json:"excluded_reason"`
	Rationale      string   `json:"rationale"`
}

func (p ratingPayload) toResult() Result {
	r := Result{Rationale: p.Rationale}
	if p.Score != nil {
		s := int(*p.Score)
		if s < 0 {
			s = 0
		}
		if s > 100 {
			s = 100
		}
		r.Score = &s
	}
	if p.ExcludedReason != nil {
		r.ExcludedReason = *p.ExcludedReason
	}
	return r
}

// parseBatchResponse decodes the model output as an array of rating
// payloads. A bare object is treated as a one-element array.
func parseBatchResponse(raw string) ([]ratingPayload, error) {
	text := strings.TrimSpace(raw)
	// The model sometimes wraps JSON in a markdown fence despite the
	// response MIME type.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "{") {
		var single ratingPayload
		if err := json.Unmarshal([]byte(text), &single); err != nil {
			return nil, fmt.Errorf("invalid rating object: %w", err)
		}
		return []ratingPayload{single}, nil
	}

	var batch []ratingPayload
	if err := json.Unmarshal([]byte(text), &batch); err != nil {
		return nil, fmt.Errorf("invalid rating array: %w", err)
	}
	return batch, nil
}

// geminiGenerator issues real Gemini calls.
type geminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("error generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	if text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(text), nil
	}
	return "", fmt.Errorf("unexpected response part type")
}

// errGenerator fails every call with a fixed error. Used when no API key
// is configured, so articles accumulate as pending instead of crashing
// the pipeline.
type errGenerator struct {
	err error
}

func (g errGenerator) generate(ctx context.Context, prompt string) (string, error) {
	return "", g.err
}
