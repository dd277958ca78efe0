// Package scanner walks library roots on disk, reconciles what it finds
// against the catalog, and flags rows whose match confidence is too low
// to trust automatically. It is the disk-facing counterpart to
// internal/importer: the importer places files the downloader brought
// in; the scanner periodically re-derives ground truth from whatever is
// actually sitting under a library root, including files it never
// placed itself.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/events"
	"github.com/vmunix/arrgo/internal/importer"
)

// Progress reports incremental scan state. Grounded on the importer's
// event-publish idiom and jatassi-SlipStream's ScanProgress shape.
type Progress struct {
	RootPath     string
	CurrentPath  string
	FilesScanned int
	Matched      int
	NeedsReview  int
}

// ProgressFunc receives Progress updates during a scan. May be nil.
type ProgressFunc func(Progress)

// Scanner walks a library root and reconciles it against the catalog.
type Scanner struct {
	store    *catalog.Store
	bus      *events.Bus
	log      *slog.Logger
	prober   Prober // optional; nil falls back to filename-only parsing
	progress *progressState
}

// New creates a Scanner. prober may be nil.
func New(store *catalog.Store, bus *events.Bus, log *slog.Logger, prober Prober) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{store: store, bus: bus, log: log, prober: prober, progress: newProgressState()}
}

// Result summarizes a completed scan.
type Result struct {
	RootPath     string
	FilesScanned int
	Matched      int
	NeedsReview  int
	Missing      int
	Reappeared   int
	Errors       []error
	Duration     time.Duration

	// seenContent/seenEpisodes track which catalog rows had a file on
	// disk this scan, keyed by ID; consulted by reconcile to find rows
	// that no longer do.
	seenContent  map[int64]bool
	seenEpisodes map[int64]bool
}

// Scan walks rootPath looking for video files belonging to contentType,
// matches each one against the catalog by parsed folder/filename title,
// stamps match confidence and resolution, and reconciles any catalog
// rows that no longer have a file on disk (see reconcile.go). It emits
// ScanStarted/ScanCompleted on bus if bus is non-nil, reports live
// progress to progressFn if non-nil (and to Current(rootPath) either
// way), and persists a LastRun summary regardless.
func (s *Scanner) Scan(ctx context.Context, rootPath string, contentType catalog.ContentType, graceDuration time.Duration, progressFn ProgressFunc) (*Result, error) {
	start := time.Now()
	defer s.progress.clear(rootPath)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, &events.ScanStarted{
			BaseEvent:   events.NewBaseEvent(events.EventScanStarted, events.EntityContent, 0),
			RootPath:    rootPath,
			ContentType: string(contentType),
		})
	}

	res := &Result{
		RootPath:     rootPath,
		seenContent:  make(map[int64]bool),
		seenEpisodes: make(map[int64]bool),
	}

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			res.Errors = append(res.Errors, walkErr)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		if !importer.IsVideoFile(path) || importer.IsSampleFile(d.Name()) {
			return nil
		}

		res.FilesScanned++
		contentID, matched, needsReview, err := s.matchFile(path, contentType, res)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("match %s: %w", path, err))
			return nil
		}
		if matched {
			res.Matched++
			res.seenContent[contentID] = true
		}
		if needsReview {
			res.NeedsReview++
		}

		p := Progress{
			RootPath:     rootPath,
			CurrentPath:  path,
			FilesScanned: res.FilesScanned,
			Matched:      res.Matched,
			NeedsReview:  res.NeedsReview,
		}
		s.progress.set(p)
		if progressFn != nil {
			progressFn(p)
		}
		return nil
	})
	if err != nil && err != context.Canceled {
		return res, fmt.Errorf("walk %s: %w", rootPath, err)
	}
	if err == context.Canceled {
		return res, ctx.Err()
	}

	missing, rErr := s.reconcile(contentType, res.seenContent, res.seenEpisodes, graceDuration)
	res.Missing = missing
	if rErr != nil {
		res.Errors = append(res.Errors, rErr)
	}

	res.Duration = time.Since(start)
	if s.bus != nil {
		_ = s.bus.Publish(ctx, &events.ScanCompleted{
			BaseEvent:       events.NewBaseEvent(events.EventScanCompleted, events.EntityContent, 0),
			RootPath:        rootPath,
			FilesScanned:    res.FilesScanned,
			MatchedCount:    res.Matched,
			NeedsReview:     res.NeedsReview,
			MissingCount:    res.Missing,
			ReappearedCount: res.Reappeared,
			DurationMs:      res.Duration.Milliseconds(),
		})
	}

	if err := s.saveLastRun(res, start); err != nil {
		s.log.Error("failed to persist scan last-run record", "root_path", rootPath, "error", err)
	}
	return res, nil
}

// matchFile resolves a single on-disk video file against the catalog,
// creating or updating the owning Content/Episode row. Returns the
// matched content ID (0 if none), whether a match was made, and whether
// the match needs manual review.
func (s *Scanner) matchFile(path string, contentType catalog.ContentType, res *Result) (int64, bool, bool, error) {
	parsed := parsePath(path)
	title := parsed.Filename.Title
	if title == "" {
		title = parsed.Folder.Title
	}
	if title == "" {
		return 0, false, false, nil
	}
	year := parsed.Filename.Year
	if year == 0 {
		year = parsed.Folder.Year
	}

	info, statErr := os.Stat(path)
	var size int64
	if statErr == nil {
		size = info.Size()
	}

	switch contentType {
	case catalog.ContentTypeSeries:
		return s.matchEpisode(path, parsed, title, year, size, res)
	default:
		return s.matchMovie(path, parsed, title, year, size, res)
	}
}

func (s *Scanner) matchMovie(path string, parsed parsedPath, title string, year int, size int64, res *Result) (int64, bool, bool, error) {
	content, err := s.store.GetByTitleYear(title, year)
	if err != nil {
		return 0, false, false, err
	}
	if content == nil {
		content = &catalog.Content{
			Type:   catalog.ContentTypeMovie,
			Title:  title,
			Year:   year,
			Status: catalog.StatusAvailable,
		}
		confidence := matchConfidence(parsed, title, year)
		content.Path = path
		content.SizeBytes = size
		content.MatchConfidence = confidence
		content.NeedsMatchReview = needsReview(confidence)
		content.MissingSince = nil
		if err := s.store.AddContent(content); err != nil {
			return 0, false, false, err
		}
		return content.ID, true, content.NeedsMatchReview, nil
	}

	if content.MissingSince != nil {
		res.Reappeared++
	}

	confidence := matchConfidence(parsed, content.Title, content.Year)
	content.Path = path
	content.SizeBytes = size
	content.MatchConfidence = confidence
	content.NeedsMatchReview = needsReview(confidence)
	content.MissingSince = nil
	content.Status = catalog.StatusAvailable
	if err := s.store.UpdateContent(content); err != nil {
		return 0, false, false, err
	}
	return content.ID, true, content.NeedsMatchReview, nil
}

func (s *Scanner) matchEpisode(path string, parsed parsedPath, title string, year int, size int64, res *Result) (int64, bool, bool, error) {
	season := parsed.Filename.Season
	epNum := parsed.Filename.Episode
	if season == 0 && parsed.Folder.Season != 0 {
		season = parsed.Folder.Season
	}
	if epNum == 0 && parsed.Folder.Episode != 0 {
		epNum = parsed.Folder.Episode
	}

	content, err := s.store.GetByTitleYear(title, year)
	if err != nil {
		return 0, false, false, err
	}
	if content == nil {
		content = &catalog.Content{
			Type:   catalog.ContentTypeSeries,
			Title:  title,
			Year:   year,
			Status: catalog.StatusAvailable,
		}
		if err := s.store.AddContent(content); err != nil {
			return 0, false, false, err
		}
	}

	ep, created, err := s.store.FindOrCreateEpisode(content.ID, season, epNum)
	if err != nil {
		return 0, false, false, err
	}
	if !created && ep.MissingSince != nil {
		res.Reappeared++
	}

	confidence := matchConfidence(parsed, content.Title, content.Year)
	ep.Path = path
	ep.SizeBytes = size
	ep.MatchConfidence = confidence
	ep.NeedsMatchReview = needsReview(confidence)
	ep.MissingSince = nil
	ep.Status = catalog.StatusAvailable
	if err := s.store.UpdateEpisode(ep); err != nil {
		return 0, false, false, err
	}
	res.seenEpisodes[ep.ID] = true
	return content.ID, true, ep.NeedsMatchReview, nil
}
