// internal/importer/extras.go
package importer

import (
	"os"
	"path/filepath"
	"strings"
)

// extrasDirIndicators are folder name substrings that mark a directory as
// containing extras (featurettes, behind-the-scenes, deleted scenes, etc.)
// rather than the main feature, mirroring the conventions Plex and the
// other *arr apps already scan for.
var extrasDirIndicators = []string{
	"extras",
	"featurettes",
	"behind the scenes",
	"deleted scenes",
	"interviews",
	"scenes",
	"shorts",
	"trailers",
	"other",
}

// ExtrasSubdir is the directory name extras are routed under, relative to
// the movie or episode's own destination folder.
const ExtrasSubdir = "extras"

// IsExtrasPath reports whether a source file path lives under a directory
// that matches one of the extras conventions.
func IsExtrasPath(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, indicator := range extrasDirIndicators {
		if strings.Contains(lower, "/"+indicator+"/") {
			return true
		}
	}
	return false
}

// FindExtras walks a download's video files and returns the ones that live
// under an extras-style subdirectory, separate from the main feature.
func FindExtras(videos []string) (feature []string, extras []string) {
	for _, v := range videos {
		if IsExtrasPath(v) {
			extras = append(extras, v)
			continue
		}
		feature = append(feature, v)
	}
	return feature, extras
}

// extrasDestPath builds the destination path for an extra file: it is
// placed in an "extras" subdirectory next to the main feature's
// destination file, keeping the extra's own basename.
func extrasDestPath(featureDestPath, extraSrcPath string) string {
	dir := filepath.Dir(featureDestPath)
	name := SanitizeFilename(filepath.Base(extraSrcPath))
	return filepath.Join(dir, ExtrasSubdir, name)
}

// importExtras copies each extra file alongside the main feature's
// destination, creating the extras subdirectory as needed. Failures on
// individual extras are logged but do not fail the overall import — extras
// are a nice-to-have, never load-bearing for availability.
func (i *Importer) importExtras(featureDestPath string, extras []string) {
	if len(extras) == 0 {
		return
	}
	for _, src := range extras {
		dest := extrasDestPath(featureDestPath, src)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			i.log.Warn("create extras dir failed", "dest", filepath.Dir(dest), "error", err)
			continue
		}
		if _, err := CopyFile(src, dest); err != nil {
			i.log.Warn("copy extra failed", "src", src, "dest", dest, "error", err)
			continue
		}
		i.log.Debug("extra imported", "src", src, "dest", dest)
	}
}
