// internal/importer/extensions.go
package importer

import (
	"path/filepath"
	"strings"
)

// VideoExtensions are the file extensions treated as video content
// throughout the importer and scanner.
var VideoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".avi":  true,
	".m4v":  true,
	".ts":   true,
	".wmv":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".mpg":  true,
	".mpeg": true,
	".m2ts": true,
	".vob":  true,
	".iso":  true,
}

// SubtitleExtensions are the file extensions moved alongside a video file
// and tagged with a language code during import.
var SubtitleExtensions = map[string]bool{
	".srt": true,
	".sub": true,
	".idx": true,
	".ass": true,
	".ssa": true,
	".vtt": true,
}

// sampleFileIndicators are substrings that mark a video file as a sample
// or trailer rather than the feature itself.
var sampleFileIndicators = []string{
	"sample",
	"trailer",
	"proof",
}

// IsVideoFile checks if a path has a recognized video extension.
func IsVideoFile(path string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSubtitleFile checks if a path has a recognized subtitle extension.
func IsSubtitleFile(path string) bool {
	return SubtitleExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSampleFile reports whether a filename indicates a sample/trailer/proof
// clip that should not be treated as the main feature file.
func IsSampleFile(name string) bool {
	lower := strings.ToLower(name)
	for _, indicator := range sampleFileIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
