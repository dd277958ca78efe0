package scanner

import (
	"path/filepath"

	"github.com/vmunix/arrgo/pkg/release"
)

// parsedPath is the result of parsing both a file's folder and filename
// against the release grammar, plus whatever the catalog already knows
// about the content it's being matched against.
type parsedPath struct {
	Folder   *release.Info
	Filename *release.Info
}

// parsePath parses both the immediate parent folder name and the
// filename itself, since either one (or both) may carry the release's
// real title/year/quality tokens depending on how the download was laid
// out on disk.
func parsePath(path string) parsedPath {
	folder := filepath.Base(filepath.Dir(path))
	file := filepath.Base(path)
	return parsedPath{
		Folder:   release.Parse(folder),
		Filename: release.Parse(file),
	}
}

// matchConfidence scores how confident the scanner is that parsedPath
// actually corresponds to catalogTitle/catalogYear, in [0, 1]. It starts
// from a neutral base and adds evidence: a successful parse on each of
// folder/filename, and agreement between them on title and year.
// Confidence below 0.6 should set NeedsMatchReview on the owning
// Content/Episode row (spec.md §4.3).
func matchConfidence(p parsedPath, catalogTitle string, catalogYear int) float64 {
	const (
		base           = 0.5
		folderParsed   = 0.15
		filenameParsed = 0.15
		titleAgreement = 0.2
		yearAgreement  = 0.1
	)

	score := base
	if p.Folder.Title != "" {
		score += folderParsed
	}
	if p.Filename.Title != "" {
		score += filenameParsed
	}

	folderMatch := release.MatchTitle(catalogTitle, []string{p.Folder.Title})
	filenameMatch := release.MatchTitle(catalogTitle, []string{p.Filename.Title})
	if folderMatch.Confidence >= release.ConfidenceMedium || filenameMatch.Confidence >= release.ConfidenceMedium {
		score += titleAgreement
	}

	if catalogYear > 0 && (p.Folder.Year == catalogYear || p.Filename.Year == catalogYear) {
		score += yearAgreement
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// needsReview reports whether a match confidence score should flag the
// row for manual review, per spec.md §4.3's 0.6 threshold.
func needsReview(confidence float64) bool {
	return confidence < 0.6
}

// candidateResolution resolves a file's effective resolution, preferring
// whichever of folder/filename parse carries one, falling back to the
// size heuristic, and finally an optional Prober result supplied by the
// caller (nil-safe: scanner runs fine without one).
func candidateResolution(p parsedPath, sizeBytes int64, probed release.Resolution) release.Resolution {
	if p.Filename.Resolution != release.ResolutionUnknown {
		return p.Filename.Resolution
	}
	if p.Folder.Resolution != release.ResolutionUnknown {
		return p.Folder.Resolution
	}
	if probed != release.ResolutionUnknown {
		return probed
	}
	return resolutionFromSize(sizeBytes)
}
