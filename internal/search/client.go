package search

import (
	"context"

	"github.com/vmunix/arrgo/pkg/newznab"
	"github.com/vmunix/arrgo/pkg/torznab"
)

// Capabilities describes what an indexer supports, as reported by its
// capabilities endpoint (Newznab/Torznab "t=caps", Prowlarr's indexer
// definition).
type Capabilities struct {
	SupportsSearch bool
	SupportsRSS    bool
	Categories     []int
}

// Client is the capability surface every indexer backend must satisfy,
// regardless of wire protocol (Newznab, Torznab, Prowlarr). IndexerPool
// holds a heterogeneous slice of these rather than a single client type.
type Client interface {
	Name() string
	Kind() IndexerKind
	Search(ctx context.Context, q Query) ([]Release, error)
	FetchRSS(ctx context.Context, categories []int) ([]Release, error)
	GetCapabilities(ctx context.Context) (Capabilities, error)
	TestConnection(ctx context.Context) error
}

// categoriesFor returns the category id set for a query's content type,
// shared by every wire-protocol adapter below.
func categoriesFor(contentType string) []int {
	switch contentType {
	case "movie":
		return []int{2000, 2010, 2020, 2030, 2040, 2045, 2050}
	case "series":
		return []int{5000, 5010, 5020, 5030, 5040, 5045, 5050, 5070}
	default:
		return nil
	}
}

func toReleases[T any](items []T, convert func(T) Release) []Release {
	out := make([]Release, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return out
}

// newznabClient adapts *newznab.Client to the Client interface.
type newznabClient struct {
	*newznab.Client
}

func (a newznabClient) Kind() IndexerKind { return IndexerKindNewznab }

func (a newznabClient) Search(ctx context.Context, q Query) ([]Release, error) {
	rels, err := a.Client.Search(ctx, q.Text, categoriesFor(q.Type))
	if err != nil {
		return nil, err
	}
	return toReleases(rels, newznabToRelease), nil
}

func (a newznabClient) FetchRSS(ctx context.Context, categories []int) ([]Release, error) {
	rels, err := a.Client.FetchRSS(ctx, categories)
	if err != nil {
		return nil, err
	}
	return toReleases(rels, newznabToRelease), nil
}

func (a newznabClient) GetCapabilities(ctx context.Context) (Capabilities, error) {
	if err := a.Client.Caps(ctx); err != nil {
		return Capabilities{}, err
	}
	return Capabilities{SupportsSearch: true, SupportsRSS: true}, nil
}

func (a newznabClient) TestConnection(ctx context.Context) error {
	return a.Client.Caps(ctx)
}

func newznabToRelease(r newznab.Release) Release {
	return Release{
		Title:       r.Title,
		GUID:        r.GUID,
		DownloadURL: r.DownloadURL,
		Size:        r.Size,
		PublishDate: r.PublishDate,
		Indexer:     r.Indexer,
	}
}

// torznabClient adapts *torznab.Client to the Client interface.
type torznabClient struct {
	*torznab.Client
}

func (a torznabClient) Kind() IndexerKind { return IndexerKindTorznab }

func (a torznabClient) Search(ctx context.Context, q Query) ([]Release, error) {
	rels, err := a.Client.Search(ctx, q.Text, categoriesFor(q.Type))
	if err != nil {
		return nil, err
	}
	return toReleases(rels, torznabToRelease), nil
}

func (a torznabClient) FetchRSS(ctx context.Context, categories []int) ([]Release, error) {
	rels, err := a.Client.FetchRSS(ctx, categories)
	if err != nil {
		return nil, err
	}
	return toReleases(rels, torznabToRelease), nil
}

func (a torznabClient) GetCapabilities(ctx context.Context) (Capabilities, error) {
	if err := a.Client.Caps(ctx); err != nil {
		return Capabilities{}, err
	}
	return Capabilities{SupportsSearch: true, SupportsRSS: true}, nil
}

func (a torznabClient) TestConnection(ctx context.Context) error {
	return a.Client.Caps(ctx)
}

func torznabToRelease(r torznab.Release) Release {
	return Release{
		Title:       r.Title,
		GUID:        r.GUID,
		DownloadURL: r.DownloadURL,
		Size:        r.Size,
		PublishDate: r.PublishDate,
		Indexer:     r.Indexer,
		Seeders:     r.Seeders,
	}
}

// prowlarrClientAdapter adapts *ProwlarrClient to the Client interface.
type prowlarrClientAdapter struct {
	*ProwlarrClient
	name string
}

func (a prowlarrClientAdapter) Name() string     { return a.name }
func (a prowlarrClientAdapter) Kind() IndexerKind { return IndexerKindProwlarr }

func (a prowlarrClientAdapter) Search(ctx context.Context, q Query) ([]Release, error) {
	rels, err := a.ProwlarrClient.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return toReleases(rels, prowlarrToRelease), nil
}

// FetchRSS is not part of the Prowlarr search API; Prowlarr aggregates
// indexers that are themselves searched on demand, so RSS is approximated
// by an empty-query search.
func (a prowlarrClientAdapter) FetchRSS(ctx context.Context, categories []int) ([]Release, error) {
	return a.Search(ctx, Query{})
}

func (a prowlarrClientAdapter) GetCapabilities(ctx context.Context) (Capabilities, error) {
	return Capabilities{SupportsSearch: true}, nil
}

func (a prowlarrClientAdapter) TestConnection(ctx context.Context) error {
	_, err := a.ProwlarrClient.Search(ctx, Query{Text: ""})
	return err
}

func prowlarrToRelease(r ProwlarrRelease) Release {
	return Release{
		Title:       r.Title,
		GUID:        r.GUID,
		DownloadURL: r.DownloadURL,
		Size:        r.Size,
		PublishDate: r.PublishDate,
		Indexer:     r.Indexer,
	}
}
