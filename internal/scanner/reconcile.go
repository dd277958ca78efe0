package scanner

import (
	"fmt"
	"time"

	"github.com/vmunix/arrgo/internal/catalog"
)

// reconcile finds catalog rows that claim to be available but had no
// file turn up during this scan. A row that just went missing gets its
// MissingSince timestamp stamped and otherwise keeps Status Available
// (the file may reappear — a remounted drive, a slow network share).
// Once grace has elapsed since MissingSince, the row reverts to
// StatusWanted so the upgrade controller picks it back up, grounded on
// internal/handlers/cleanup.go's pending-map-then-reconcile-on-startup
// idiom (here run per scan instead of once at process start).
func (s *Scanner) reconcile(contentType catalog.ContentType, seenContent, seenEpisodes map[int64]bool, grace time.Duration) (int, error) {
	if contentType == catalog.ContentTypeSeries {
		return s.reconcileEpisodes(seenEpisodes, grace)
	}
	return s.reconcileContent(contentType, seenContent, grace)
}

func (s *Scanner) reconcileContent(contentType catalog.ContentType, seen map[int64]bool, grace time.Duration) (int, error) {
	status := catalog.StatusAvailable
	items, _, err := s.store.ListContent(catalog.ContentFilter{Type: &contentType, Status: &status})
	if err != nil {
		return 0, fmt.Errorf("list content for reconcile: %w", err)
	}

	now := time.Now()
	missing := 0
	for _, c := range items {
		if seen[c.ID] {
			continue
		}
		missing++

		if c.MissingSince == nil {
			ts := now
			c.MissingSince = &ts
			if err := s.store.UpdateContent(c); err != nil {
				s.log.Error("reconcile: mark content missing failed", "content_id", c.ID, "error", err)
			}
			continue
		}

		if now.Sub(*c.MissingSince) >= grace {
			c.Status = catalog.StatusWanted
			if err := s.store.UpdateContent(c); err != nil {
				s.log.Error("reconcile: revert content to wanted failed", "content_id", c.ID, "error", err)
			}
			s.log.Info("content missing past grace period, reverted to wanted",
				"content_id", c.ID, "title", c.Title, "missing_since", *c.MissingSince)
		}
	}
	return missing, nil
}

func (s *Scanner) reconcileEpisodes(seen map[int64]bool, grace time.Duration) (int, error) {
	status := catalog.StatusAvailable
	items, _, err := s.store.ListEpisodes(catalog.EpisodeFilter{Status: &status})
	if err != nil {
		return 0, fmt.Errorf("list episodes for reconcile: %w", err)
	}

	now := time.Now()
	missing := 0
	for _, e := range items {
		if seen[e.ID] {
			continue
		}
		missing++

		if e.MissingSince == nil {
			ts := now
			e.MissingSince = &ts
			if err := s.store.UpdateEpisode(e); err != nil {
				s.log.Error("reconcile: mark episode missing failed", "episode_id", e.ID, "error", err)
			}
			continue
		}

		if now.Sub(*e.MissingSince) >= grace {
			e.Status = catalog.StatusWanted
			if err := s.store.UpdateEpisode(e); err != nil {
				s.log.Error("reconcile: revert episode to wanted failed", "episode_id", e.ID, "error", err)
			}
			s.log.Info("episode missing past grace period, reverted to wanted",
				"episode_id", e.ID, "content_id", e.ContentID, "missing_since", *e.MissingSince)
		}
	}
	return missing, nil
}
