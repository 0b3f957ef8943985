// internal/scrape/ogimage_test.go
package scrape

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testResolver() *Resolver {
	return NewResolver(http.DefaultClient, log.New(io.Discard, "", 0))
}

func TestResolveOGImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta property="og:image" content="https://example.com/hero.jpg">
		</head><body>story</body></html>`))
	}))
	defer srv.Close()

	got := testResolver().Resolve(context.Background(), srv.URL)
	if got != "https://example.com/hero.jpg" {
		t.Errorf("Resolve() = %q, want og:image URL", got)
	}
}

func TestResolveTwitterFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta name="twitter:image" content="https://example.com/card.png">
		</head></html>`))
	}))
	defer srv.Close()

	got := testResolver().Resolve(context.Background(), srv.URL)
	if got != "https://example.com/card.png" {
		t.Errorf("Resolve() = %q, want twitter:image URL", got)
	}
}

func TestResolveNoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>plain</title></head></html>`))
	}))
	defer srv.Close()

	if got := testResolver().Resolve(context.Background(), srv.URL); got != "" {
		t.Errorf("Resolve() = %q, want empty string", got)
	}
}

func TestResolveHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if got := testResolver().Resolve(context.Background(), srv.URL); got != "" {
		t.Errorf("Resolve() = %q, want empty string on 404", got)
	}
}

func TestResolveSetsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	testResolver().Resolve(context.Background(), srv.URL)
	if ua != "BrightWorld/1.0" {
		t.Errorf("User-Agent = %q, want BrightWorld/1.0", ua)
	}
}

func TestResolveUnreachable(t *testing.T) {
	if got := testResolver().Resolve(context.Background(), "http://127.0.0.1:1/page"); got != "" {
		t.Errorf("Resolve() = %q, want empty string on connection error", got)
	}
}
