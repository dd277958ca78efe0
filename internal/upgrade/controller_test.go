package upgrade

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/download"
	"github.com/vmunix/arrgo/internal/quality"
	"github.com/vmunix/arrgo/internal/search"
	"github.com/vmunix/arrgo/pkg/release"
)

func newTestController(t *testing.T, indexers *fakeIndexerAPI, client *fakeDownloader) (*Controller, *catalog.Store) {
	t.Helper()
	db := setupTestDB(t)
	catalogStore := catalog.NewStore(db)
	downloadStore := download.NewStore(db)
	mgr := download.NewManager(client, downloadStore, slog.Default())
	searcher := search.NewSearcher(indexers, search.NewScorer(map[string][]string{
		"hd": {"2160p bluray", "1080p webdl"},
	}), slog.Default())

	resolver := func(contentID int64) (quality.Preset, error) {
		return fixedPreset("hd"), nil
	}
	return New(catalogStore, mgr, searcher, resolver, nil, nil), catalogStore
}

func addMovieWithQuality(t *testing.T, store *catalog.Store) *catalog.Content {
	t.Helper()
	c := &catalog.Content{
		Type:           catalog.ContentTypeMovie,
		Title:          "Heat",
		Year:           1995,
		Status:         catalog.StatusAvailable,
		QualityProfile: "hd",
	}
	if err := store.AddContent(c); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	qs := &catalog.QualityStatus{
		ContentID:    &c.ID,
		Resolution:   release.Resolution1080p.String(),
		Source:       release.SourceWEBDL.String(),
		SearchStatus: catalog.SearchIdle,
		Score:        50,
	}
	if err := store.UpsertQualityStatus(qs); err != nil {
		t.Fatalf("UpsertQualityStatus: %v", err)
	}
	return c
}

func TestSearchUpgrade_GrabsBetterRelease(t *testing.T) {
	indexers := &fakeIndexerAPI{releases: []search.Release{
		{
			Title:       "Heat.1995.2160p.BluRay.x265-GROUP",
			Indexer:     "test-indexer",
			DownloadURL: "http://example.com/heat.nzb",
			Quality: &release.Info{
				Resolution: release.Resolution2160p,
				Source:     release.SourceBluRay,
				Codec:      release.CodecX265,
			},
		},
	}}
	client := &fakeDownloader{clientID: "nzo_1"}
	ctrl, store := newTestController(t, indexers, client)
	content := addMovieWithQuality(t, store)

	candidates, err := ctrl.GetUpgrades(0, nil)
	if err != nil {
		t.Fatalf("GetUpgrades: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if candidates[0].ContentID != content.ID {
		t.Errorf("ContentID = %d, want %d", candidates[0].ContentID, content.ID)
	}
	if candidates[0].Type != catalog.ContentTypeMovie {
		t.Errorf("Type = %q, want movie", candidates[0].Type)
	}

	if err := ctrl.searchUpgrade(context.Background(), candidates[0]); err != nil {
		t.Fatalf("searchUpgrade: %v", err)
	}

	qs, err := store.GetQualityStatusForContent(content.ID)
	if err != nil {
		t.Fatalf("GetQualityStatusForContent: %v", err)
	}
	if qs.SearchStatus != catalog.SearchIdle {
		t.Errorf("SearchStatus = %q, want idle after a successful grab", qs.SearchStatus)
	}
	if qs.SearchAttempts != 0 {
		t.Errorf("SearchAttempts = %d, want reset to 0", qs.SearchAttempts)
	}
}

func TestSearchUpgrade_NoBetterReleaseSchedulesRetry(t *testing.T) {
	indexers := &fakeIndexerAPI{releases: nil}
	ctrl, store := newTestController(t, indexers, &fakeDownloader{clientID: "nzo_1"})
	content := addMovieWithQuality(t, store)

	candidates, err := ctrl.GetUpgrades(0, nil)
	if err != nil {
		t.Fatalf("GetUpgrades: %v", err)
	}

	if err := ctrl.searchUpgrade(context.Background(), candidates[0]); err != nil {
		t.Fatalf("searchUpgrade: %v", err)
	}

	qs, err := store.GetQualityStatusForContent(content.ID)
	if err != nil {
		t.Fatalf("GetQualityStatusForContent: %v", err)
	}
	if qs.SearchStatus != catalog.SearchPendingRetry {
		t.Errorf("SearchStatus = %q, want pending_retry", qs.SearchStatus)
	}
	if qs.SearchAttempts != 1 {
		t.Errorf("SearchAttempts = %d, want 1", qs.SearchAttempts)
	}
	if qs.NextSearchAt == nil || !qs.NextSearchAt.After(time.Now()) {
		t.Error("expected NextSearchAt to be scheduled in the future")
	}
}

func TestGetUpgrades_ExcludesNotYetDueRetries(t *testing.T) {
	ctrl, store := newTestController(t, &fakeIndexerAPI{}, &fakeDownloader{})
	content := addMovieWithQuality(t, store)

	qs, err := store.GetQualityStatusForContent(content.ID)
	if err != nil {
		t.Fatalf("GetQualityStatusForContent: %v", err)
	}
	future := time.Now().Add(time.Hour)
	qs.SearchStatus = catalog.SearchPendingRetry
	qs.NextSearchAt = &future
	if err := store.UpsertQualityStatus(qs); err != nil {
		t.Fatalf("UpsertQualityStatus: %v", err)
	}

	due, err := ctrl.GetUpgrades(0, nil)
	if err != nil {
		t.Fatalf("GetUpgrades: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("len(due) = %d, want 0 while retry is not yet due", len(due))
	}
}

func TestPauseAndResetUpgradeSearch(t *testing.T) {
	ctrl, store := newTestController(t, &fakeIndexerAPI{}, &fakeDownloader{})
	content := addMovieWithQuality(t, store)

	if err := ctrl.PauseUpgrade(content.ID, nil, true); err != nil {
		t.Fatalf("PauseUpgrade: %v", err)
	}
	paused, err := store.GetQualityStatusForContent(content.ID)
	if err != nil {
		t.Fatalf("GetQualityStatusForContent: %v", err)
	}
	if paused.SearchStatus != catalog.SearchPaused {
		t.Errorf("SearchStatus = %q, want paused", paused.SearchStatus)
	}

	due, err := ctrl.GetUpgrades(0, nil)
	if err != nil {
		t.Fatalf("GetUpgrades: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("len(due) = %d, want 0 while paused (ListUpgradeCandidates excludes paused rows)", len(due))
	}

	if err := ctrl.ResetUpgradeSearch(content.ID, nil); err != nil {
		t.Fatalf("ResetUpgradeSearch: %v", err)
	}
	reset, err := store.GetQualityStatusForContent(content.ID)
	if err != nil {
		t.Fatalf("GetQualityStatusForContent: %v", err)
	}
	if reset.SearchStatus != catalog.SearchIdle {
		t.Errorf("SearchStatus = %q, want idle after reset", reset.SearchStatus)
	}
}
