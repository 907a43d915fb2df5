/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/teamlink/games/degrees"
	"golang.org/x/sync/singleflight"
)

// datasetSource reads the match dataset once and hands the same immutable
// copy to every game. Concurrent first loads share a single read; a failed
// read is not remembered, so the next load retries.
type datasetSource struct {
	cfg      *Config
	location string
	client   *http.Client

	group singleflight.Group

	mu   sync.Mutex
	data *degrees.Dataset
}

func newDatasetSource(cfg *Config) *datasetSource {
	return &datasetSource{
		cfg:      cfg,
		location: cfg.data,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *datasetSource) cached() *degrees.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data
}

// Load satisfies degrees.Loader.
func (s *datasetSource) Load(ctx context.Context) (*degrees.Dataset, error) {
	if ds := s.cached(); ds != nil {
		return ds, nil
	}

	v, err, shared := s.group.Do(s.location, func() (any, error) {
		startTime := time.Now()

		ds, err := s.read(ctx)
		if err != nil {
			datasetLoads.WithLabelValues("error").Inc()
			return nil, err
		}

		s.mu.Lock()
		s.data = ds
		s.mu.Unlock()

		datasetLoads.WithLabelValues("ok").Inc()
		datasetMatches.Set(float64(len(ds.Matches)))

		logf(s.cfg, "DATA: Loaded %d matches (%d malformed) from %s in %s",
			len(ds.Matches),
			ds.Malformed,
			s.location,
			time.Since(startTime).Round(time.Microsecond),
		)

		return ds, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		logf(s.cfg, "DATA: Shared in-flight load of %s", s.location)
	}

	return v.(*degrees.Dataset), nil
}

func (s *datasetSource) read(ctx context.Context) (*degrees.Dataset, error) {
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		return s.fetch(ctx)
	}

	f, err := os.Open(s.location)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return degrees.DecodeDataset(f)
}

func (s *datasetSource) fetch(ctx context.Context) (*degrees.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "teamlink/"+releaseVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching %s: HTTP %d", s.location, resp.StatusCode)
	}

	return degrees.DecodeDataset(resp.Body)
}
