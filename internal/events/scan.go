// internal/events/scan.go
package events

// Event type constants for library scanning and the upgrade controller.
const (
	EventScanStarted           = "scan.started"
	EventScanCompleted         = "scan.completed"
	EventUpgradeSearchStarted  = "upgrade.search.started"
	EventUpgradeSearchComplete = "upgrade.search.completed"
	EventUpgradeSearchFailed   = "upgrade.search.failed"
	EventQualityStatusChanged  = "quality.status.changed"
)

// ScanStarted is emitted when a library scan begins.
type ScanStarted struct {
	BaseEvent
	RootPath    string `json:"root_path"`
	ContentType string `json:"content_type"`
}

// ScanCompleted is emitted when a library scan finishes.
type ScanCompleted struct {
	BaseEvent
	RootPath        string `json:"root_path"`
	FilesScanned    int    `json:"files_scanned"`
	MatchedCount    int    `json:"matched_count"`
	NeedsReview     int    `json:"needs_review_count"`
	MissingCount    int    `json:"missing_count"`
	ReappearedCount int    `json:"reappeared_count"`
	DurationMs      int64  `json:"duration_ms"`
}

// UpgradeSearchStarted is emitted when the upgrade controller begins
// searching indexers for a better release of a Content/Episode.
type UpgradeSearchStarted struct {
	BaseEvent
	ContentID *int64 `json:"content_id,omitempty"`
	EpisodeID *int64 `json:"episode_id,omitempty"`
}

// UpgradeSearchCompleted is emitted when an upgrade search finds (and
// grabs) a better release.
type UpgradeSearchCompleted struct {
	BaseEvent
	ContentID   *int64 `json:"content_id,omitempty"`
	EpisodeID   *int64 `json:"episode_id,omitempty"`
	ReleaseName string `json:"release_name"`
	Indexer     string `json:"indexer"`
}

// UpgradeSearchFailed is emitted when an upgrade search finds nothing
// suitable, or the search itself errors. Retryable results schedule a
// backoff via searchStatus/nextSearchAt rather than failing permanently.
type UpgradeSearchFailed struct {
	BaseEvent
	ContentID *int64 `json:"content_id,omitempty"`
	EpisodeID *int64 `json:"episode_id,omitempty"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// QualityStatusChanged is emitted whenever a quality_statuses row's
// search_status transitions (e.g. idle -> searching -> pending_retry).
type QualityStatusChanged struct {
	BaseEvent
	ContentID *int64 `json:"content_id,omitempty"`
	EpisodeID *int64 `json:"episode_id,omitempty"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}
