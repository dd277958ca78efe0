// Package server provides the event-driven server components.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/arrgo/internal/adapters/plex"
	"github.com/vmunix/arrgo/internal/adapters/sabnzbd"
	"github.com/vmunix/arrgo/internal/download"
	"github.com/vmunix/arrgo/internal/events"
	"github.com/vmunix/arrgo/internal/handlers"
	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/scanner"
	"github.com/vmunix/arrgo/internal/upgrade"
	"golang.org/x/sync/errgroup"
)

// ScanTarget is one library root the background scanner sweeps
// periodically, alongside the content type and missing-file grace
// period to apply to it (config.LibraryConfig.Root/EffectiveGraceDuration).
type ScanTarget struct {
	Root          string
	ContentType   catalog.ContentType
	GraceDuration time.Duration
}

// Config for the event-driven server.
type Config struct {
	SABnzbdPollInterval time.Duration // How often to poll SABnzbd (default: 5s)
	PlexPollInterval    time.Duration // How often to poll Plex (default: 60s)
	DownloadRoot        string
	DownloadRemotePath  string // Path prefix as seen by SABnzbd
	DownloadLocalPath   string // Local path prefix
	CleanupEnabled      bool
}

// Runner manages the event-driven components.
type Runner struct {
	db     *sql.DB
	config Config
	logger *slog.Logger

	// Dependencies
	downloader  download.Downloader
	importer    handlers.FileImporter
	plexChecker plex.Checker // Can be nil if Plex not configured

	// Optional background sweepers; nil means the component is disabled.
	scanner         *scanner.Scanner
	scanTargets     []ScanTarget
	scanInterval    time.Duration
	upgradeCtrl     *upgrade.Controller
	upgradeInterval time.Duration
	tracker         *download.Tracker

	// Runtime state
	startOnce sync.Once
	bus       *events.Bus
	eventLog  *events.EventLog
}

// DefaultScanInterval is how often the background scanner re-sweeps each
// configured library root when WithScanner doesn't override it.
const DefaultScanInterval = 15 * time.Minute

// DefaultUpgradeInterval is how often the upgrade controller re-sweeps
// quality_statuses for due upgrade searches when WithUpgrade doesn't
// override it.
const DefaultUpgradeInterval = 10 * time.Minute

// WithScanner attaches the periodic library scanner. targets lists each
// library root to sweep; a zero interval defaults to DefaultScanInterval.
// Returns r for chaining.
func (r *Runner) WithScanner(sc *scanner.Scanner, targets []ScanTarget, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	r.scanner = sc
	r.scanTargets = targets
	r.scanInterval = interval
	return r
}

// WithUpgrade attaches the periodic upgrade controller sweep. A zero
// interval defaults to DefaultUpgradeInterval. Returns r for chaining.
func (r *Runner) WithUpgrade(ctrl *upgrade.Controller, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultUpgradeInterval
	}
	r.upgradeCtrl = ctrl
	r.upgradeInterval = interval
	return r
}

// WithTracker attaches the download completion backstop sweeper. Returns r
// for chaining.
func (r *Runner) WithTracker(t *download.Tracker) *Runner {
	r.tracker = t
	return r
}

// NewRunner creates a new runner.
func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger, downloader download.Downloader, importer handlers.FileImporter, plexChecker plex.Checker) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:          db,
		config:      cfg,
		logger:      logger,
		downloader:  downloader,
		importer:    importer,
		plexChecker: plexChecker,
	}
}

// Start initializes the runner and returns the event bus.
// Call Run() after Start() to begin processing.
// Safe to call from multiple goroutines; initialization happens only once.
func (r *Runner) Start() *events.Bus {
	r.startOnce.Do(func() {
		r.eventLog = events.NewEventLog(r.db)
		r.bus = events.NewBus(r.eventLog, r.logger.With("component", "bus"))
	})
	return r.bus
}

// EventLog returns the event log. Must call Start() first.
func (r *Runner) EventLog() *events.EventLog {
	return r.eventLog
}

// Run starts all event-driven components.
// Must call Start() before Run().
func (r *Runner) Run(ctx context.Context) error {
	if r.bus == nil {
		return errors.New("must call Start() before Run()")
	}
	defer r.bus.Close()

	// Create stores
	downloadStore := download.NewStore(r.db)
	libraryStore := catalog.NewStore(r.db)

	// Create handlers
	downloadHandler := handlers.NewDownloadHandler(r.bus, downloadStore, libraryStore, r.downloader, r.logger.With("handler", "download"))
	importHandler := handlers.NewImportHandler(r.bus, downloadStore, libraryStore, r.importer, r.logger.With("handler", "import"))
	cleanupHandler := handlers.NewCleanupHandler(r.bus, downloadStore, handlers.CleanupConfig{
		DownloadRoot: r.config.DownloadRoot,
		Enabled:      r.config.CleanupEnabled,
	}, r.logger.With("handler", "cleanup"))

	// Use errgroup to manage component lifecycle
	g, ctx := errgroup.WithContext(ctx)

	// Start handlers
	g.Go(func() error {
		r.logger.Info("starting download handler")
		return downloadHandler.Start(ctx)
	})
	g.Go(func() error {
		r.logger.Info("starting import handler")
		return importHandler.Start(ctx)
	})
	g.Go(func() error {
		r.logger.Info("starting cleanup handler")
		return cleanupHandler.Start(ctx)
	})

	// Create adapters
	sabnzbdAdapter := sabnzbd.New(r.bus, r.downloader, downloadStore, sabnzbd.Config{
		Interval:   r.config.SABnzbdPollInterval,
		RemotePath: r.config.DownloadRemotePath,
		LocalPath:  r.config.DownloadLocalPath,
	}, r.logger.With("adapter", "sabnzbd"))

	// Start adapters
	g.Go(func() error {
		r.logger.Info("starting sabnzbd adapter", "interval", r.config.SABnzbdPollInterval)
		return sabnzbdAdapter.Start(ctx)
	})

	// Only start Plex adapter if configured
	if r.plexChecker != nil {
		plexAdapter := plex.New(r.bus, r.plexChecker, downloadStore, r.config.PlexPollInterval, r.logger.With("adapter", "plex"))
		g.Go(func() error {
			r.logger.Info("starting plex adapter", "interval", r.config.PlexPollInterval)
			return plexAdapter.Start(ctx)
		})
	}

	// Library scanner: periodic reconciliation sweep of each configured root
	if r.scanner != nil {
		g.Go(func() error {
			r.logger.Info("starting library scanner", "interval", r.scanInterval, "roots", len(r.scanTargets))
			return r.runScanner(ctx)
		})
	}

	// Upgrade controller: periodic re-search for better releases
	if r.upgradeCtrl != nil {
		g.Go(func() error {
			r.logger.Info("starting upgrade controller", "interval", r.upgradeInterval)
			return r.runUpgrades(ctx)
		})
	}

	// Download tracker: poll-based backstop for the event-driven import path
	if r.tracker != nil {
		r.tracker.Start(ctx)
	}

	// Event log pruning (every 24 hours, keep 90 days)
	g.Go(func() error {
		// Prune on startup
		if pruned, err := r.eventLog.Prune(90 * 24 * time.Hour); err != nil {
			r.logger.Error("failed to prune event log on startup", "error", err)
		} else if pruned > 0 {
			r.logger.Info("pruned old events on startup", "count", pruned)
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				pruned, err := r.eventLog.Prune(90 * 24 * time.Hour)
				if err != nil {
					r.logger.Error("failed to prune event log", "error", err)
				} else if pruned > 0 {
					r.logger.Info("pruned old events", "count", pruned)
				}
			}
		}
	})

	return g.Wait()
}

// runScanner sweeps every configured library root once at startup, then
// again every scanInterval until ctx is done.
func (r *Runner) runScanner(ctx context.Context) error {
	sweep := func() {
		for _, target := range r.scanTargets {
			result, err := r.scanner.Scan(ctx, target.Root, target.ContentType, target.GraceDuration, nil)
			if err != nil {
				r.logger.Error("library scan failed", "root", target.Root, "error", err)
				continue
			}
			r.logger.Info("library scan complete",
				"root", target.Root,
				"matched", result.Matched,
				"needs_review", result.NeedsReview,
				"missing", result.Missing,
			)
		}
	}

	sweep()

	ticker := time.NewTicker(r.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}

// runUpgrades re-searches due upgrade candidates once at startup, then
// again every upgradeInterval until ctx is done.
func (r *Runner) runUpgrades(ctx context.Context) error {
	sweep := func() {
		if err := r.upgradeCtrl.SearchAllUpgrades(ctx, nil); err != nil {
			r.logger.Error("upgrade sweep failed", "error", err)
		}
	}

	sweep()

	ticker := time.NewTicker(r.upgradeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}
