/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Seednode/teamlink/games/degrees"
)

func TestDatasetSourceFile(t *testing.T) {
	cfg := testConfig(t, chainDoc)
	source := newDatasetSource(cfg)

	ds, err := source.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(ds.Matches); got != 2 {
		t.Errorf("len(Matches) = %d, want 2", got)
	}

	// Later loads are served from memory.
	if err := os.Remove(cfg.data); err != nil {
		t.Fatal(err)
	}
	again, err := source.Load(t.Context())
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if again != ds {
		t.Error("cached Load returned a different dataset")
	}
}

func TestDatasetSourceMissingFile(t *testing.T) {
	cfg := &Config{data: "does-not-exist.json"}
	source := newDatasetSource(cfg)

	if _, err := source.Load(t.Context()); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
	if source.cached() != nil {
		t.Error("failed load was cached")
	}
}

func TestDatasetSourceInvalidJSON(t *testing.T) {
	cfg := testConfig(t, `[1, 2, 3]`)

	_, err := newDatasetSource(cfg).Load(t.Context())
	if degrees.ReasonOf(err) != degrees.ReasonDataError {
		t.Errorf("Load error = %v, want reason %s", err, degrees.ReasonDataError)
	}
}

func TestDatasetSourceHTTP(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/data.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chainDoc))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("OK", func(t *testing.T) {
		source := newDatasetSource(&Config{data: srv.URL + "/data.json"})

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := source.Load(t.Context()); err != nil {
					t.Errorf("Load: %v", err)
				}
			}()
		}
		wg.Wait()

		before := hits.Load()
		if _, err := source.Load(t.Context()); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if hits.Load() != before {
			t.Error("cached Load fetched again")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		source := newDatasetSource(&Config{data: srv.URL + "/missing.json"})

		if _, err := source.Load(t.Context()); err == nil {
			t.Fatal("Load of a 404 succeeded")
		}
	})
}
