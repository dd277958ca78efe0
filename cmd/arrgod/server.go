package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vmunix/arrgo/internal/adapters/plex"
	"github.com/vmunix/arrgo/internal/config"
	"github.com/vmunix/arrgo/internal/download"
	"github.com/vmunix/arrgo/internal/importer"
	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/migrations"
	"github.com/vmunix/arrgo/internal/quality"
	"github.com/vmunix/arrgo/internal/scanner"
	"github.com/vmunix/arrgo/internal/search"
	"github.com/vmunix/arrgo/internal/server"
	"github.com/vmunix/arrgo/internal/upgrade"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// runServer wires the daemon's stores, adapters, and the event-driven
// server.Runner, then blocks until SIGINT/SIGTERM. There is no HTTP
// surface here — arrgod is a background process.
func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Stores (always created) ===
	libraryStore := catalog.NewStore(db)
	downloadStore := download.NewStore(db)
	historyStore := importer.NewHistoryStore(db)

	downloadStore.OnTransition(func(e download.TransitionEvent) {
		logger.Info("download status changed",
			"download_id", e.DownloadID,
			"from", e.From,
			"to", e.To,
		)
	})

	// === Clients (optional - nil if not configured) ===
	var sabClient *download.SABnzbdClient
	if cfg.Downloaders.SABnzbd != nil {
		sabClient = download.NewSABnzbdClient(
			cfg.Downloaders.SABnzbd.URL,
			cfg.Downloaders.SABnzbd.APIKey,
			cfg.Downloaders.SABnzbd.Category,
			logger,
		)
	}

	indexerRegistry := search.NewRegistryStore(db)
	if err := syncIndexerRegistry(indexerRegistry, cfg.Indexers); err != nil {
		return fmt.Errorf("sync indexer registry: %w", err)
	}
	indexerRecords, err := indexerRegistry.ListEnabled()
	if err != nil {
		return fmt.Errorf("load indexers: %w", err)
	}
	var indexerPool *search.IndexerPool
	if len(indexerRecords) > 0 {
		indexerPool = search.NewPoolFromRegistry(indexerRecords, logger.With("component", "indexerpool"))
	}

	var plexClient *importer.PlexClient
	if cfg.Notifications.Plex != nil {
		plexClient = importer.NewPlexClient(
			cfg.Notifications.Plex.URL,
			cfg.Notifications.Plex.Token,
			logger,
		)
	}

	// === Services ===
	var downloadManager *download.Manager
	if sabClient != nil {
		downloadManager = download.NewManager(sabClient, downloadStore, logger.With("component", "download"))
	}

	var searcher *search.Searcher
	if indexerPool != nil {
		profiles := make(map[string][]string, len(cfg.Quality.Profiles))
		for name, p := range cfg.Quality.Profiles {
			profiles[name] = p.Resolution
		}
		scorer := search.NewScorer(profiles)
		searcher = search.NewSearcher(indexerPool, scorer, logger.With("component", "search"))
	}

	imp := importer.New(db, importer.Config{
		MovieRoot:      cfg.Libraries.Movies.Root,
		SeriesRoot:     cfg.Libraries.Series.Root,
		MovieTemplate:  cfg.Libraries.Movies.Naming,
		SeriesTemplate: cfg.Libraries.Series.Naming,
		PlexURL:        plexURLFromConfig(cfg),
		PlexToken:      plexTokenFromConfig(cfg),
		PlexLocalPath:  plexLocalPathFromConfig(cfg),
		PlexRemotePath: plexRemotePathFromConfig(cfg),
	}, logger.With("component", "importer"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sabClient != nil {
		var plexChecker plex.Checker
		if plexClient != nil {
			plexChecker = &plexCheckerAdapter{client: plexClient, lib: libraryStore}
		}

		runner := server.NewRunner(db, server.Config{
			SABnzbdPollInterval: sabPollInterval(cfg),
			PlexPollInterval:    plexPollInterval(cfg),
			DownloadRoot:        sabDownloadRoot(cfg),
			DownloadRemotePath:  sabRemotePath(cfg),
			DownloadLocalPath:   sabLocalPath(cfg),
			CleanupEnabled:      cfg.Importer.ShouldCleanupSource(),
		}, logger, sabClient, imp, plexChecker)

		bus := runner.Start()

		sc := scanner.New(libraryStore, bus, logger.With("component", "scanner"), nil)
		runner.WithScanner(sc, scanTargets(cfg), 0)

		if downloadManager != nil && searcher != nil {
			ctrl := upgrade.New(libraryStore, downloadManager, searcher, presetResolver(cfg, libraryStore), bus, logger.With("component", "upgrade"))
			runner.WithUpgrade(ctrl, 0)
		}

		runner.WithTracker(download.NewTracker(downloadStore, sabClient, importer.TrackerAdapter{Importer: imp}, 0, logger.With("component", "tracker")))

		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("runner error", "error", err)
			}
		}()
	}
	_ = historyStore

	logger.Info("arrgod running",
		"database", cfg.Database.Path,
		"sabnzbd", sabClient != nil,
		"indexers", len(cfg.Indexers),
		"plex", plexClient != nil,
		"log_level", cfg.Server.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	cancel()
	logger.Info("arrgod stopped")
	return nil
}

func plexURLFromConfig(cfg *config.Config) string {
	if cfg.Notifications.Plex != nil {
		return cfg.Notifications.Plex.URL
	}
	return ""
}

func plexTokenFromConfig(cfg *config.Config) string {
	if cfg.Notifications.Plex != nil {
		return cfg.Notifications.Plex.Token
	}
	return ""
}

func plexLocalPathFromConfig(cfg *config.Config) string {
	if cfg.Notifications.Plex != nil {
		return cfg.Notifications.Plex.LocalPath
	}
	return ""
}

func plexRemotePathFromConfig(cfg *config.Config) string {
	if cfg.Notifications.Plex != nil {
		return cfg.Notifications.Plex.RemotePath
	}
	return ""
}

// sabDownloadRoot returns the local path for SABnzbd downloads.
func sabDownloadRoot(cfg *config.Config) string {
	if cfg.Downloaders.SABnzbd != nil && cfg.Downloaders.SABnzbd.LocalPath != "" {
		return cfg.Downloaders.SABnzbd.LocalPath
	}
	return ""
}

// sabRemotePath returns the remote path prefix as seen by SABnzbd.
func sabRemotePath(cfg *config.Config) string {
	if cfg.Downloaders.SABnzbd != nil {
		return cfg.Downloaders.SABnzbd.RemotePath
	}
	return ""
}

// sabLocalPath returns the local path prefix for SABnzbd downloads.
func sabLocalPath(cfg *config.Config) string {
	if cfg.Downloaders.SABnzbd != nil {
		return cfg.Downloaders.SABnzbd.LocalPath
	}
	return ""
}

// sabPollInterval returns the SABnzbd poll interval, defaulting to 5 seconds.
func sabPollInterval(cfg *config.Config) time.Duration {
	if cfg.Downloaders.SABnzbd != nil && cfg.Downloaders.SABnzbd.PollInterval > 0 {
		return cfg.Downloaders.SABnzbd.PollInterval
	}
	return 5 * time.Second
}

// plexPollInterval returns the Plex poll interval, defaulting to 60 seconds.
func plexPollInterval(cfg *config.Config) time.Duration {
	if cfg.Notifications.Plex != nil && cfg.Notifications.Plex.PollInterval > 0 {
		return cfg.Notifications.Plex.PollInterval
	}
	return 60 * time.Second
}

// plexCheckerAdapter adapts PlexClient to the plex.Checker interface.
type plexCheckerAdapter struct {
	client *importer.PlexClient
	lib    *catalog.Store
}

// scanTargets builds the background scanner's sweep list from the
// configured library roots, skipping any that aren't set.
func scanTargets(cfg *config.Config) []server.ScanTarget {
	var targets []server.ScanTarget
	if cfg.Libraries.Movies.Root != "" {
		targets = append(targets, server.ScanTarget{
			Root:          cfg.Libraries.Movies.Root,
			ContentType:   catalog.ContentTypeMovie,
			GraceDuration: cfg.Libraries.Movies.EffectiveGraceDuration(),
		})
	}
	if cfg.Libraries.Series.Root != "" {
		targets = append(targets, server.ScanTarget{
			Root:          cfg.Libraries.Series.Root,
			ContentType:   catalog.ContentTypeSeries,
			GraceDuration: cfg.Libraries.Series.EffectiveGraceDuration(),
		})
	}
	return targets
}

// presetResolver closes over the config-declared quality profiles so the
// upgrade controller can turn a Content row's QualityProfile name into the
// quality.Preset that governs its target/cutoff, without internal/upgrade
// needing to import internal/config.
func presetResolver(cfg *config.Config, lib *catalog.Store) upgrade.PresetResolver {
	return func(contentID int64) (quality.Preset, error) {
		content, err := lib.GetContent(contentID)
		if err != nil {
			return quality.Preset{}, err
		}
		name := content.QualityProfile
		profile, ok := cfg.Quality.Profiles[name]
		if !ok {
			name = cfg.Quality.Default
			profile = cfg.Quality.Profiles[name]
		}
		return quality.FromProfile(name, profile), nil
	}
}

// syncIndexerRegistry reconciles the `indexers` table against the
// config-declared set: existing rows are left alone (so runtime
// enable/disable toggles survive restarts), missing ones are added.
func syncIndexerRegistry(reg *search.RegistryStore, cfg config.IndexersConfig) error {
	existing, err := reg.List()
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(existing))
	for _, r := range existing {
		byName[r.Name] = true
	}

	for name, indexer := range cfg {
		if byName[name] {
			continue
		}
		kind := search.IndexerKind(indexer.EffectiveKind())
		if err := reg.Add(&search.IndexerRecord{
			Name:     name,
			Kind:     kind,
			BaseURL:  indexer.URL,
			APIKey:   indexer.APIKey,
			Enabled:  true,
			Priority: indexer.Priority,
		}); err != nil {
			return fmt.Errorf("register indexer %s: %w", name, err)
		}
	}
	return nil
}

func (a *plexCheckerAdapter) HasContentByID(ctx context.Context, contentID int64) (bool, string, error) {
	content, err := a.lib.GetContent(contentID)
	if err != nil {
		return false, "", err
	}
	found, err := a.client.HasMovie(ctx, content.Title, content.Year)
	if err != nil {
		return false, "", err
	}
	return found, "", nil
}
