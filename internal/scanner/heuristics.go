package scanner

import "github.com/vmunix/arrgo/pkg/release"

// sizeHeuristicThreshold maps a minimum file size (bytes) to the
// resolution it implies when neither the filename nor a Prober supplied
// one. Checked largest-first; a file must clear a threshold to be
// stamped with that resolution.
type sizeHeuristicThreshold struct {
	MinBytes   int64
	Resolution release.Resolution
}

// sizeHeuristicThresholds is only consulted when a file's name carries no
// resolution token and no Prober is configured. Thresholds are
// deliberately conservative (sized for two-hour features) to avoid
// misclassifying long lower-resolution files as higher-resolution ones.
var sizeHeuristicThresholds = []sizeHeuristicThreshold{
	{MinBytes: 20 << 30, Resolution: release.Resolution2160p}, // 20 GiB+
	{MinBytes: 4 << 30, Resolution: release.Resolution1080p},  // 4 GiB+
	{MinBytes: 1 << 30, Resolution: release.Resolution720p},   // 1 GiB+
}

// resolutionFromSize applies sizeHeuristicThresholds to a file size,
// returning release.ResolutionUnknown if no threshold is cleared.
func resolutionFromSize(sizeBytes int64) release.Resolution {
	for _, t := range sizeHeuristicThresholds {
		if sizeBytes >= t.MinBytes {
			return t.Resolution
		}
	}
	return release.ResolutionUnknown
}
