// internal/importer/unmatched.go
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/arrgo/internal/download"
)

// unmatchedDirName is the directory name, relative to the configured
// UnmatchedRoot path, that parked downloads are moved under.
const unmatchedDirName = "_Unmatched"

// ParkUnmatched moves a download's files out of the download client's
// staging area and into `_Unmatched/{SanitizedTitle}-{shortID}/`, then
// marks the download StatusUnmatched so it stops being retried by the
// tracker and shows up for manual triage instead.
//
// It is for a download that is real and complete but could not be placed
// automatically. Nothing in the importer calls it: prepareImport returns an
// error (for example ErrEpisodeNotSpecified) instead of parking.
func (i *Importer) ParkUnmatched(ctx context.Context, downloadID int64, downloadPath string, reason string) (string, error) {
	dl, err := i.downloads.Get(downloadID)
	if err != nil {
		return "", fmt.Errorf("get download: %w", err)
	}

	if i.unmatchedRoot == "" {
		return "", fmt.Errorf("unmatched root not configured")
	}

	dirName := SanitizeFilename(dl.ReleaseName)
	if dirName == "" {
		dirName = "unknown"
	}
	// Short ID suffix avoids collisions when the same release name parks
	// more than once (retried search, re-grab after a failed match).
	dirName = fmt.Sprintf("%s-%s", dirName, uuid.NewString()[:8])

	destDir := filepath.Join(i.unmatchedRoot, unmatchedDirName, dirName)
	if err := ValidatePath(destDir, i.unmatchedRoot); err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create unmatched dir: %w", err)
	}

	videos, err := FindAllVideos(downloadPath)
	if err != nil {
		return "", fmt.Errorf("find videos: %w", err)
	}
	if len(videos) == 0 {
		return "", ErrNoVideoFile
	}

	for _, src := range videos {
		dest := filepath.Join(destDir, filepath.Base(src))
		if _, err := MoveFile(src, dest); err != nil {
			i.log.Warn("move unmatched video failed", "src", src, "dest", dest, "error", err)
			continue
		}
	}

	dl.Status = download.StatusUnmatched
	now := time.Now()
	dl.CompletedAt = &now
	if err := i.downloads.Update(dl); err != nil {
		i.log.Warn("mark download unmatched failed", "download_id", downloadID, "error", err)
	}

	historyData, _ := json.Marshal(map[string]any{
		"source_path": downloadPath,
		"parked_path": destDir,
		"reason":      reason,
	})
	_ = i.history.Add(&HistoryEntry{
		ContentID: dl.ContentID,
		EpisodeID: dl.EpisodeID,
		Event:     EventUnmatched,
		Data:      string(historyData),
	})

	i.log.Info("download parked as unmatched", "download_id", downloadID, "dest", destDir, "reason", reason)
	return destDir, nil
}
