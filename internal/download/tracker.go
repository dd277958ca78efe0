// internal/download/tracker.go
package download

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTrackerInterval is how often the Tracker sweeps the store for
// completed downloads the event-driven import handler may have missed
// (the event bus drops publishes on a full channel rather than blocking).
const DefaultTrackerInterval = 10 * time.Second

// TrackerImporter is the subset of internal/importer.Importer the Tracker
// needs; it is single-file vs. season-pack aware so the Tracker can route
// each completed download the same way internal/handlers.ImportHandler
// does.
type TrackerImporter interface {
	Import(ctx context.Context, downloadID int64, path string) error
	ImportSeasonPack(ctx context.Context, downloadID int64, path string) error
}

// Tracker periodically sweeps the download store for completed downloads
// and hands each one to the importer exactly once, independent of the
// event bus. It exists as a backstop: internal/handlers.ImportHandler
// reacts to DownloadCompleted events as they're published, but
// events.Bus.Publish silently drops on a full channel, so a poll-based
// second path is required to guarantee forward progress, grounded in
// internal/adapters/sabnzbd/adapter.go's ticker + per-item status check
// shape.
type Tracker struct {
	store    *Store
	client   Downloader
	importer TrackerImporter
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}

	stop      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
}

// NewTracker creates a Tracker. A zero interval defaults to
// DefaultTrackerInterval.
func NewTracker(store *Store, client Downloader, importer TrackerImporter, interval time.Duration, log *slog.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultTrackerInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		store:    store,
		client:   client,
		importer: importer,
		interval: interval,
		log:      log,
		inFlight: make(map[int64]struct{}),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins the periodic sweep in a background goroutine. Safe to call
// once; subsequent calls are no-ops. Call Stop to halt it.
func (t *Tracker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		go t.run(ctx)
	})
}

// Stop halts the sweep and waits for the background goroutine to exit.
func (t *Tracker) Stop() {
	close(t.stop)
	<-t.stopped
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.stopped)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

// sweep lists completed, not-yet-importing downloads and imports any that
// aren't already being handled by this Tracker.
func (t *Tracker) sweep(ctx context.Context) {
	completedStatus := StatusCompleted
	downloads, err := t.store.List(Filter{Status: &completedStatus, Active: true})
	if err != nil {
		t.log.Error("tracker: list completed downloads failed", "error", err)
		return
	}

	for _, dl := range downloads {
		t.maybeImport(ctx, dl)
	}
}

func (t *Tracker) claim(downloadID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inFlight[downloadID]; ok {
		return false
	}
	t.inFlight[downloadID] = struct{}{}
	return true
}

func (t *Tracker) release(downloadID int64) {
	t.mu.Lock()
	delete(t.inFlight, downloadID)
	t.mu.Unlock()
}

func (t *Tracker) maybeImport(ctx context.Context, dl *Download) {
	if !t.claim(dl.ID) {
		return
	}
	defer t.release(dl.ID)

	status, err := t.client.Status(ctx, dl.ClientID)
	if err != nil {
		t.log.Warn("tracker: client status failed", "download_id", dl.ID, "error", err)
		return
	}
	if status == nil || status.Path == "" {
		return
	}

	var importErr error
	if dl.IsCompleteSeason {
		importErr = t.importer.ImportSeasonPack(ctx, dl.ID, status.Path)
	} else {
		importErr = t.importer.Import(ctx, dl.ID, status.Path)
	}
	if importErr != nil {
		t.log.Warn("tracker: import failed", "download_id", dl.ID, "error", importErr)
		return
	}
	t.log.Info("tracker: import handed off", "download_id", dl.ID, "path", status.Path)
}
