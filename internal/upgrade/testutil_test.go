package upgrade

import (
	"context"
	"database/sql"
	_ "embed"
	"testing"

	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/download"
	"github.com/vmunix/arrgo/internal/quality"
	"github.com/vmunix/arrgo/internal/search"
	"github.com/vmunix/arrgo/pkg/release"
	_ "modernc.org/sqlite"
)

//go:embed testdata/schema.sql
var testSchema string

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// fakeIndexerAPI implements search.IndexerAPI, returning a fixed set of
// releases from Search and zero values everywhere else.
type fakeIndexerAPI struct {
	releases []search.Release
	err      error
}

func (f *fakeIndexerAPI) Search(ctx context.Context, q search.Query) ([]search.Release, []error) {
	if f.err != nil {
		return nil, []error{f.err}
	}
	return f.releases, nil
}

func (f *fakeIndexerAPI) FetchRSS(ctx context.Context, categories []int) ([]search.Release, []error) {
	return nil, nil
}

func (f *fakeIndexerAPI) GetCapabilities(ctx context.Context) (map[string]search.Capabilities, []error) {
	return nil, nil
}

func (f *fakeIndexerAPI) TestConnection(ctx context.Context) []error { return nil }

// fakeDownloader implements download.Downloader so Manager.Grab can run
// against an in-memory store without touching a real download client.
type fakeDownloader struct {
	clientID string
	err      error
}

func (f *fakeDownloader) Add(ctx context.Context, url, category string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.clientID, nil
}

func (f *fakeDownloader) Status(ctx context.Context, clientID string) (*download.ClientStatus, error) {
	return nil, nil
}

func (f *fakeDownloader) List(ctx context.Context) ([]*download.ClientStatus, error) {
	return nil, nil
}

func (f *fakeDownloader) Remove(ctx context.Context, clientID string, deleteFiles bool) error {
	return nil
}

func fixedPreset(name string) quality.Preset {
	return quality.Preset{
		Name:             name,
		MinResolution:    release.Resolution1080p,
		CutoffResolution: release.Resolution2160p,
	}
}
