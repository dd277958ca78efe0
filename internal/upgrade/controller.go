// Package upgrade periodically re-searches indexers for releases better
// than whatever quality a Content/Episode currently holds, grabbing a
// replacement when one clears the configured cutoff. It is the
// always-on counterpart to internal/search: search answers "what's out
// there right now", upgrade decides "should we go get something better,
// and how hard should we keep trying".
package upgrade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/download"
	"github.com/vmunix/arrgo/internal/events"
	"github.com/vmunix/arrgo/internal/quality"
	"github.com/vmunix/arrgo/internal/search"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentSearches bounds how many upgrade searches run at once
// during a sweep, grounded on internal/server/runner.go's errgroup usage.
const maxConcurrentSearches = 4

// PresetResolver resolves the quality.Preset that governs a given
// content item's upgrade target/cutoff. Content.QualityProfile names a
// profile in config.QualityConfig.Profiles; the caller (cmd/arrgod)
// closes over that map so this package doesn't need to import config.
type PresetResolver func(contentID int64) (quality.Preset, error)

// Controller runs upgrade searches and owns the searchStatus state
// machine stored on each quality_statuses row.
type Controller struct {
	catalogStore *catalog.Store
	downloads    *download.Manager
	searcher     *search.Searcher
	presets      PresetResolver
	bus          *events.Bus
	log          *slog.Logger
}

// New creates an upgrade Controller.
func New(catalogStore *catalog.Store, downloads *download.Manager, searcher *search.Searcher,
	presets PresetResolver, bus *events.Bus, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		catalogStore: catalogStore,
		downloads:    downloads,
		searcher:     searcher,
		presets:      presets,
		bus:          bus,
		log:          log,
	}
}

// GetUpgrades returns candidates currently due for an upgrade search:
// below cutoff, not paused, and either never searched or past their
// next_search_at backoff deadline.
func (c *Controller) GetUpgrades(limit int, mediaType *catalog.ContentType) ([]*catalog.UpgradeCandidate, error) {
	candidates, err := c.catalogStore.ListUpgradeCandidates(limit, mediaType)
	if err != nil {
		return nil, fmt.Errorf("list upgrade candidates: %w", err)
	}
	now := time.Now()
	due := candidates[:0]
	for _, cand := range candidates {
		if cand.Status.NextSearchAt != nil && cand.Status.NextSearchAt.After(now) {
			continue
		}
		due = append(due, cand)
	}
	return due, nil
}

// searchAllUpgrades sweeps every due candidate (optionally scoped to
// mediaType), running up to maxConcurrentSearches searches in parallel.
// Grounded on download/manager.go's Refresh poll-loop shape, generalized
// from a sequential for-range to a bounded errgroup fan-out since an
// indexer round-trip is much slower than a download-client status poll.
func (c *Controller) searchAllUpgrades(ctx context.Context, limit int, mediaType *catalog.ContentType) error {
	due, err := c.GetUpgrades(limit, mediaType)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	for _, cand := range due {
		cand := cand
		g.Go(func() error {
			if err := c.searchUpgrade(gctx, cand); err != nil {
				c.log.Error("upgrade search failed", "content_id", cand.ContentID, "episode_id", cand.EpisodeID, "error", err)
			}
			return nil // don't abort the sweep over one candidate's error
		})
	}
	return g.Wait()
}

// SearchAllUpgrades is the exported entrypoint a ticker loop calls each
// sweep interval.
func (c *Controller) SearchAllUpgrades(ctx context.Context, mediaType *catalog.ContentType) error {
	return c.searchAllUpgrades(ctx, 0, mediaType)
}

// searchUpgrade runs one upgrade search for a single candidate: queries
// indexers, picks the best release that both matches the preset's
// target and actually beats the currently-held quality, grabs it if
// found, and otherwise schedules a backoff retry.
func (c *Controller) searchUpgrade(ctx context.Context, cand *catalog.UpgradeCandidate) error {
	preset, err := c.presets(cand.ContentID)
	if err != nil {
		return fmt.Errorf("resolve preset for content %d: %w", cand.ContentID, err)
	}

	c.publishStarted(cand)

	q := search.Query{
		ContentID: cand.ContentID,
		Text:      cand.Title,
		Type:      string(cand.Type),
	}
	if cand.EpisodeID != nil {
		season, episode := cand.Season, cand.Episode
		q.Season = &season
		q.Episode = &episode
	}

	result, err := c.searcher.Search(ctx, q, preset.Name)
	if err != nil {
		c.scheduleRetry(cand, fmt.Sprintf("search error: %v", err))
		return fmt.Errorf("search upgrade for content %d: %w", cand.ContentID, err)
	}

	current := quality.CurrentQualityFromStrings(
		cand.Status.Resolution, cand.Status.Source, cand.Status.Codec,
		cand.Status.HDR, cand.Status.Audio, cand.Status.Edition, cand.Status.IsRemux,
	)

	var best *search.Release
	bestScore := -1
	for _, rel := range result.Releases {
		if rel.Quality == nil || !quality.CheckTargetMatch(*rel.Quality, preset) {
			continue
		}
		if !quality.IsUpgrade(*rel.Quality, current, preset) {
			continue
		}
		_, score := quality.MatchesTarget(*rel.Quality, preset)
		if score > bestScore {
			best = rel
			bestScore = score
		}
	}

	if best == nil {
		c.scheduleRetry(cand, "no release cleared the upgrade target")
		return nil
	}

	if _, err := c.downloads.Grab(ctx, cand.ContentID, cand.EpisodeID, best.DownloadURL, best.Title, best.Indexer); err != nil {
		c.scheduleRetry(cand, fmt.Sprintf("grab failed: %v", err))
		return fmt.Errorf("grab upgrade for content %d: %w", cand.ContentID, err)
	}

	cand.Status.SearchStatus = catalog.SearchIdle
	cand.Status.SearchAttempts = 0
	cand.Status.NextSearchAt = nil
	if err := c.catalogStore.UpsertQualityStatus(cand.Status); err != nil {
		c.log.Error("failed to reset search status after grab", "content_id", cand.ContentID, "error", err)
	}

	if c.bus != nil {
		_ = c.bus.Publish(ctx, &events.UpgradeSearchCompleted{
			BaseEvent:   events.NewBaseEvent(events.EventUpgradeSearchComplete, entityFor(cand), idFor(cand)),
			ContentID:   contentIDPtr(cand),
			EpisodeID:   cand.EpisodeID,
			ReleaseName: best.Title,
			Indexer:     best.Indexer,
		})
	}
	return nil
}

// scheduleRetry advances the backoff schedule and persists it, leaving
// the candidate's held quality untouched.
func (c *Controller) scheduleRetry(cand *catalog.UpgradeCandidate, reason string) {
	cand.Status.SearchAttempts++
	cand.Status.SearchStatus = catalog.SearchPendingRetry
	next := time.Now().Add(nextBackoff(cand.Status.SearchAttempts))
	cand.Status.NextSearchAt = &next

	if err := c.catalogStore.UpsertQualityStatus(cand.Status); err != nil {
		c.log.Error("failed to persist upgrade backoff", "content_id", cand.ContentID, "error", err)
	}

	if c.bus != nil {
		_ = c.bus.Publish(context.Background(), &events.UpgradeSearchFailed{
			BaseEvent: events.NewBaseEvent(events.EventUpgradeSearchFailed, entityFor(cand), idFor(cand)),
			ContentID: contentIDPtr(cand),
			EpisodeID: cand.EpisodeID,
			Reason:    reason,
			Retryable: true,
		})
	}
}

func (c *Controller) publishStarted(cand *catalog.UpgradeCandidate) {
	if c.bus == nil {
		return
	}
	_ = c.bus.Publish(context.Background(), &events.UpgradeSearchStarted{
		BaseEvent: events.NewBaseEvent(events.EventUpgradeSearchStarted, entityFor(cand), idFor(cand)),
		ContentID: contentIDPtr(cand),
		EpisodeID: cand.EpisodeID,
	})
}

// ResetUpgradeSearch clears any backoff/pause state for a candidate,
// making it immediately eligible for the next sweep.
func (c *Controller) ResetUpgradeSearch(contentID int64, episodeID *int64) error {
	qs, err := c.getStatus(contentID, episodeID)
	if err != nil {
		return err
	}
	qs.SearchStatus = catalog.SearchIdle
	qs.SearchAttempts = 0
	qs.NextSearchAt = nil
	return c.catalogStore.UpsertQualityStatus(qs)
}

// PauseUpgrade stops (or resumes) upgrade searching for a single item
// without touching its held quality fields.
func (c *Controller) PauseUpgrade(contentID int64, episodeID *int64, paused bool) error {
	qs, err := c.getStatus(contentID, episodeID)
	if err != nil {
		return err
	}
	if paused {
		qs.SearchStatus = catalog.SearchPaused
	} else {
		qs.SearchStatus = catalog.SearchIdle
		qs.NextSearchAt = nil
	}
	return c.catalogStore.UpsertQualityStatus(qs)
}

func (c *Controller) getStatus(contentID int64, episodeID *int64) (*catalog.QualityStatus, error) {
	if episodeID != nil {
		return c.catalogStore.GetQualityStatusForEpisode(*episodeID)
	}
	return c.catalogStore.GetQualityStatusForContent(contentID)
}

func entityFor(cand *catalog.UpgradeCandidate) string {
	if cand.EpisodeID != nil {
		return events.EntityEpisode
	}
	return events.EntityContent
}

func idFor(cand *catalog.UpgradeCandidate) int64 {
	if cand.EpisodeID != nil {
		return *cand.EpisodeID
	}
	return cand.ContentID
}

func contentIDPtr(cand *catalog.UpgradeCandidate) *int64 {
	if cand.ContentID == 0 {
		return nil
	}
	id := cand.ContentID
	return &id
}
