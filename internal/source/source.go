// internal/source/source.go
package source

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"brightworld/internal/filter"

	"gopkg.in/yaml.v3"
)

// Candidate is a normalized news item fetched from a source, prior to
// persistence. It is consumed by the ingestion pipeline and discarded.
type Candidate struct {
	Headline   string
	Summary    string
	Link       string
	Published  *time.Time
	GUID       string
	SourceName string
	ImageURL   string
}

// Adapter fetches raw candidates from one news source. Implementations
// are best-effort: per-item problems are swallowed and a partial result
// is preferable to an error.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

// SourceConfig describes one configured source.
type SourceConfig struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"` // "rss" or "newsapi"
	URL       string `yaml:"url"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// Config is the YAML sources file: the source list plus optional keyword
// table overrides for the pre-filter.
type Config struct {
	Sources  []SourceConfig `yaml:"sources"`
	Keywords struct {
		Negative []filter.KeywordTable `yaml:"negative"`
		Trivial  []filter.KeywordTable `yaml:"trivial"`
	} `yaml:"keywords"`
}

// LoadConfig reads the sources YAML file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing sources config: %w", err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources config %s declares no sources", path)
	}
	return &cfg, nil
}

// NewHTTPClient builds the shared outbound HTTP client used by all
// adapters and the image resolver.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return nil
		},
	}
}

// BuildAdapters constructs adapters from the configured source list.
// Unknown kinds are logged and skipped rather than failing startup.
func BuildAdapters(cfg *Config, client *http.Client, logger *log.Logger) []Adapter {
	var adapters []Adapter
	for _, sc := range cfg.Sources {
		switch sc.Kind {
		case "rss", "":
			adapters = append(adapters, NewRSSAdapter(sc.Name, sc.URL, client, logger))
		case "newsapi":
			apiKey := ""
			if sc.APIKeyEnv != "" {
				apiKey = os.Getenv(sc.APIKeyEnv)
			}
			if apiKey == "" {
				logger.Printf("Skipping news API source %s: %s not set", sc.Name, sc.APIKeyEnv)
				continue
			}
			adapters = append(adapters, NewAPIAdapter(sc.Name, sc.URL, apiKey, client, logger))
		default:
			logger.Printf("Skipping source %s: unknown kind %q", sc.Name, sc.Kind)
		}
	}
	return adapters
}
