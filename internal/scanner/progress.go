package scanner

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// lastRunSettingKey namespaces the durable last-run record within the
// shared settings key/value table (internal/catalog/settings.go), one
// entry per library root so movies and series scans don't clobber
// each other.
func lastRunSettingKey(rootPath string) string {
	return "scanner.last_run." + rootPath
}

// LastRun is the durable record of a scan's outcome, persisted to the
// settings table so a restarted daemon can report "last scanned" without
// having to re-walk the library.
type LastRun struct {
	RootPath     string    `json:"root_path"`
	StartedAt    time.Time `json:"started_at"`
	FilesScanned int       `json:"files_scanned"`
	Matched      int       `json:"matched"`
	NeedsReview  int       `json:"needs_review"`
	Missing      int       `json:"missing"`
	Reappeared   int       `json:"reappeared"`
	ErrorCount   int       `json:"error_count"`
	DurationMs   int64     `json:"duration_ms"`
}

// progressState tracks the live in-memory progress of the most recent
// (possibly still-running) scan per root, for callers polling status
// (e.g. an HTTP/CLI status endpoint) rather than subscribing to events.
type progressState struct {
	mu      sync.RWMutex
	current map[string]Progress
}

func newProgressState() *progressState {
	return &progressState{current: make(map[string]Progress)}
}

func (p *progressState) set(pr Progress) {
	p.mu.Lock()
	p.current[pr.RootPath] = pr
	p.mu.Unlock()
}

func (p *progressState) clear(rootPath string) {
	p.mu.Lock()
	delete(p.current, rootPath)
	p.mu.Unlock()
}

// Current returns the in-flight progress for rootPath, if a scan of it
// is currently running.
func (s *Scanner) Current(rootPath string) (Progress, bool) {
	s.progress.mu.RLock()
	defer s.progress.mu.RUnlock()
	pr, ok := s.progress.current[rootPath]
	return pr, ok
}

// saveLastRun persists a completed scan's summary to the settings table.
func (s *Scanner) saveLastRun(res *Result, startedAt time.Time) error {
	run := LastRun{
		RootPath:     res.RootPath,
		StartedAt:    startedAt,
		FilesScanned: res.FilesScanned,
		Matched:      res.Matched,
		NeedsReview:  res.NeedsReview,
		Missing:      res.Missing,
		Reappeared:   res.Reappeared,
		ErrorCount:   len(res.Errors),
		DurationMs:   res.Duration.Milliseconds(),
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal last run: %w", err)
	}
	return s.store.SetSetting(lastRunSettingKey(res.RootPath), string(data))
}

// LastRun returns the durable record of the most recent completed scan
// of rootPath, or ErrNotFound (via the underlying catalog error) if none
// has completed yet.
func (s *Scanner) LastRun(rootPath string) (*LastRun, error) {
	raw, err := s.store.GetSetting(lastRunSettingKey(rootPath))
	if err != nil {
		return nil, err
	}
	run := &LastRun{}
	if err := json.Unmarshal([]byte(raw), run); err != nil {
		return nil, fmt.Errorf("unmarshal last run: %w", err)
	}
	return run, nil
}
