package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/arrgo/pkg/newznab"
	"github.com/vmunix/arrgo/pkg/release"
	"github.com/vmunix/arrgo/pkg/torznab"
)

// ErrNoIndexers is returned when no indexers are configured.
var ErrNoIndexers = errors.New("no indexers configured")

// IndexerPool fans a request out across a heterogeneous set of indexer
// backends (Newznab, Torznab, Prowlarr alike) and merges the results. It
// implements IndexerAPI.
type IndexerPool struct {
	clients []Client
	log     *slog.Logger
}

// NewIndexerPool creates a pool from already-adapted Client values.
func NewIndexerPool(clients []Client, log *slog.Logger) *IndexerPool {
	return &IndexerPool{clients: clients, log: log}
}

// NewNewznabIndexerPool is a convenience constructor preserving the
// original single-protocol pool shape for callers wiring only Newznab
// indexers from static config.
func NewNewznabIndexerPool(clients []*newznab.Client, log *slog.Logger) *IndexerPool {
	adapted := make([]Client, 0, len(clients))
	for _, c := range clients {
		adapted = append(adapted, newznabClient{c})
	}
	return NewIndexerPool(adapted, log)
}

// NewPoolFromRegistry builds an IndexerPool from persisted indexer
// registrations, instantiating the right wire-protocol client per row's
// Kind and skipping disabled rows.
func NewPoolFromRegistry(records []*IndexerRecord, log *slog.Logger) *IndexerPool {
	clients := make([]Client, 0, len(records))
	for _, r := range records {
		if !r.Enabled {
			continue
		}
		switch r.Kind {
		case IndexerKindNewznab:
			clients = append(clients, newznabClient{newznab.NewClient(r.Name, r.BaseURL, r.APIKey, log)})
		case IndexerKindTorznab:
			clients = append(clients, torznabClient{torznab.NewClient(r.Name, r.BaseURL, r.APIKey, log)})
		case IndexerKindProwlarr:
			clients = append(clients, prowlarrClientAdapter{NewProwlarrClient(r.BaseURL, r.APIKey), r.Name})
		}
	}
	return NewIndexerPool(clients, log)
}

type fanOutResult struct {
	indexer  string
	releases []Release
	err      error
}

// fanOut runs fn against every client concurrently and collects results in
// client order once all have returned.
func (p *IndexerPool) fanOut(ctx context.Context, fn func(context.Context, Client) ([]Release, error)) ([]Release, []error) {
	if len(p.clients) == 0 {
		return nil, []error{ErrNoIndexers}
	}

	results := make(chan fanOutResult, len(p.clients))
	var wg sync.WaitGroup
	for _, c := range p.clients {
		wg.Add(1)
		go func(c Client) {
			defer wg.Done()
			start := time.Now()
			releases, err := fn(ctx, c)
			if err != nil {
				p.log.Warn("indexer failed", "indexer", c.Name(), "error", err, "duration_ms", time.Since(start).Milliseconds())
			} else {
				p.log.Debug("indexer returned", "indexer", c.Name(), "results", len(releases), "duration_ms", time.Since(start).Milliseconds())
			}
			results <- fanOutResult{indexer: c.Name(), releases: releases, err: err}
		}(c)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var allReleases []Release
	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		allReleases = append(allReleases, r.releases...)
	}
	return allReleases, errs
}

// Search queries all indexers in parallel and merges results.
func (p *IndexerPool) Search(ctx context.Context, q Query) ([]Release, []error) {
	searchText := release.NormalizeSearchQuery(q.Text)
	p.log.Debug("search started", "query", searchText, "original", q.Text, "type", q.Type, "indexers", len(p.clients))
	start := time.Now()

	q.Text = searchText
	releases, errs := p.fanOut(ctx, func(ctx context.Context, c Client) ([]Release, error) {
		return c.Search(ctx, q)
	})

	p.log.Info("search complete", "query", searchText, "results", len(releases), "errors", len(errs), "duration_ms", time.Since(start).Milliseconds())
	return releases, errs
}

// FetchRSS pulls each indexer's recent-releases feed for the categories
// implied by contentType, merging results the same way Search does.
func (p *IndexerPool) FetchRSS(ctx context.Context, categories []int) ([]Release, []error) {
	return p.fanOut(ctx, func(ctx context.Context, c Client) ([]Release, error) {
		return c.FetchRSS(ctx, categories)
	})
}

// GetCapabilities probes every indexer's capabilities endpoint and returns
// a map keyed by indexer name.
func (p *IndexerPool) GetCapabilities(ctx context.Context) (map[string]Capabilities, []error) {
	caps := make(map[string]Capabilities, len(p.clients))
	var errs []error
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range p.clients {
		wg.Add(1)
		go func(c Client) {
			defer wg.Done()
			capability, err := c.GetCapabilities(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			caps[c.Name()] = capability
		}(c)
	}
	wg.Wait()
	return caps, errs
}

// TestConnection checks every indexer's reachability, returning one error
// per indexer that failed (nil slice if all succeeded).
func (p *IndexerPool) TestConnection(ctx context.Context) []error {
	var errs []error
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range p.clients {
		wg.Add(1)
		go func(c Client) {
			defer wg.Done()
			if err := c.TestConnection(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()
	return errs
}
