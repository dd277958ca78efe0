package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/importer"
)

// Organize moves a matched movie file from wherever the scanner found it
// on disk into the library's canonical naming-template location, reusing
// the importer's rename-first/copy-fallback move (internal/importer/copy.go)
// and path-traversal guard (internal/importer/sanitize.go) so a scanner-
// triggered move gets the exact same safety guarantees as an
// import-triggered one.
func (s *Scanner) Organize(content *catalog.Content, libraryRoot string, renamer *importer.Renamer) (string, error) {
	if content.Path == "" {
		return "", fmt.Errorf("organize content %d: no path on record", content.ID)
	}

	ext := filepath.Ext(content.Path)
	ext = strings.TrimPrefix(ext, ".")
	quality := "Unknown"
	if content.QualityProfile != "" {
		quality = content.QualityProfile
	}

	relPath := renamer.MoviePath(content.Title, content.Year, quality, ext)
	destPath := filepath.Join(libraryRoot, relPath)

	if err := importer.ValidatePath(destPath, libraryRoot); err != nil {
		return "", fmt.Errorf("organize content %d: %w", content.ID, err)
	}
	if destPath == content.Path {
		return destPath, nil
	}

	if _, err := importer.MoveFile(content.Path, destPath); err != nil {
		return "", fmt.Errorf("organize content %d: move: %w", content.ID, err)
	}

	content.Path = destPath
	if err := s.store.UpdateContent(content); err != nil {
		return "", fmt.Errorf("organize content %d: persist new path: %w", content.ID, err)
	}

	s.log.Info("organized movie", "content_id", content.ID, "title", content.Title, "dest", destPath)
	return destPath, nil
}
