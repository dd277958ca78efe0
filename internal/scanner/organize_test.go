package scanner

import (
	"os"
	"strings"
	"testing"

	"github.com/vmunix/arrgo/internal/catalog"
	"github.com/vmunix/arrgo/internal/importer"
)

func TestOrganize_MovesFileToRenamerPath(t *testing.T) {
	sc, store := newTestScanner(t)
	srcRoot := t.TempDir()
	libraryRoot := t.TempDir()

	src := writeFile(t, srcRoot, "downloads/Inception.2010.1080p.BluRay.x264.mkv", 1<<10)

	content := &catalog.Content{
		Type:           catalog.ContentTypeMovie,
		Title:          "Inception",
		Year:           2010,
		Status:         catalog.StatusAvailable,
		QualityProfile: "1080p",
		Path:           src,
	}
	if err := store.AddContent(content); err != nil {
		t.Fatalf("AddContent: %v", err)
	}

	renamer := importer.NewRenamer("{title} ({year})/{title} ({year}) - {quality}.{ext}", "")

	dest, err := sc.Organize(content, libraryRoot, renamer)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}

	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected dest file to exist: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected src file to be moved away, stat err = %v", err)
	}
	if !strings.HasPrefix(dest, libraryRoot) {
		t.Errorf("dest %q should be under library root %q", dest, libraryRoot)
	}

	reloaded, err := store.GetByTitleYear("Inception", 2010)
	if err != nil {
		t.Fatalf("GetByTitleYear: %v", err)
	}
	if reloaded.Path != dest {
		t.Errorf("persisted Path = %q, want %q", reloaded.Path, dest)
	}
}

func TestOrganize_NoPathErrors(t *testing.T) {
	sc, _ := newTestScanner(t)
	content := &catalog.Content{ID: 1, Title: "No Path"}
	if _, err := sc.Organize(content, t.TempDir(), importer.NewRenamer("{title}.{ext}", "")); err == nil {
		t.Fatal("expected error for content with no Path")
	}
}
