/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()

	errs := make(chan error, 64)
	srv := httptest.NewServer(newRouter(cfg, newDatasetSource(cfg), errs))
	t.Cleanup(srv.Close)

	return srv
}

func noRedirects() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return resp, string(body)
}

func TestStaticRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig(t, chainDoc))

	tests := []struct {
		name        string
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"Health", "/healthz", http.StatusOK, "text/plain", "Ok"},
		{"Version", "/version", http.StatusOK, "text/plain", "teamlink v" + releaseVersion},
		{"Robots", "/robots.txt", http.StatusOK, "text/plain", "GPTBot"},
		{"Index", "/teamlink/abcdefgh", http.StatusOK, "text/html", "<title>teamlink</title>"},
		{"Script", "/assets/teamlink/app.js", http.StatusOK, "text/javascript", "new WebSocket"},
		{"Stylesheet", "/assets/teamlink/app.css", http.StatusOK, "text/css", "--accent"},
		{"Favicon", "/favicons/favicon.svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"Manifest", "/favicons/site.webmanifest", http.StatusOK, "application/manifest+json", "teamlink"},
		{"MissingAsset", "/assets/nope.js", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, http.DefaultClient, srv.URL+tt.path)

			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want prefix %q", ct, tt.contentType)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, testConfig(t, chainDoc))

	resp, _ := get(t, http.DefaultClient, srv.URL+"/healthz")

	for _, header := range []string{"Content-Security-Policy", "X-Content-Type-Options", "Referrer-Policy"} {
		if resp.Header.Get(header) == "" {
			t.Errorf("missing %s header", header)
		}
	}
	if resp.Header.Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain http")
	}
}

func TestRedirects(t *testing.T) {
	srv := newTestServer(t, testConfig(t, chainDoc))
	client := noRedirects()

	resp, _ := get(t, client, srv.URL+"/")
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("/ status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if loc := resp.Header.Get("Location"); loc != "/teamlink" {
		t.Errorf("/ redirects to %q, want /teamlink", loc)
	}

	seen := make(map[string]bool)
	for range 5 {
		resp, _ := get(t, client, srv.URL+"/teamlink")
		if resp.StatusCode != http.StatusTemporaryRedirect {
			t.Fatalf("/teamlink status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
		}

		loc := resp.Header.Get("Location")
		id, ok := strings.CutPrefix(loc, "/teamlink/")
		if !ok || len(id) != 8 {
			t.Fatalf("/teamlink redirects to %q, want /teamlink/<8 chars>", loc)
		}
		if seen[id] {
			t.Errorf("game ID %q issued twice", id)
		}
		seen[id] = true
	}
}

func TestPrefix(t *testing.T) {
	cfg := testConfig(t, chainDoc)
	cfg.prefix = "/games/"
	srv := newTestServer(t, cfg)

	resp, _ := get(t, noRedirects(), srv.URL+"/games/teamlink")
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/games/teamlink/") {
		t.Errorf("redirect = %q, want /games/teamlink/ prefix", loc)
	}

	resp, _ = get(t, http.DefaultClient, srv.URL+"/games/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("prefixed healthz status = %d", resp.StatusCode)
	}
}

func TestQRCode(t *testing.T) {
	srv := newTestServer(t, testConfig(t, chainDoc))

	resp, body := get(t, http.DefaultClient, srv.URL+"/teamlink/abcdefgh/qr")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !strings.HasPrefix(body, "\x89PNG") {
		t.Error("body is not a PNG")
	}
}

func TestMetricsRoute(t *testing.T) {
	cfg := testConfig(t, chainDoc)
	cfg.metrics = true
	srv := newTestServer(t, cfg)

	resp, body := get(t, http.DefaultClient, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "teamlink_games_active") {
		t.Error("metrics output is missing teamlink_games_active")
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1500000, "1.5 MB"},
	}

	for _, tt := range tests {
		if got := humanReadableSize(tt.bytes); got != tt.want {
			t.Errorf("humanReadableSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
