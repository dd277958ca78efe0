// internal/importer/subtitles.go
package importer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// subtitleLangSuffix matches a trailing language-code segment on a
// subtitle filename with its extension removed, e.g. "Movie.en" (from
// "Movie.en.srt") or "Movie.pt-BR.forced".
var subtitleLangSuffix = regexp.MustCompile(`(?i)\.([a-z]{2}(?:-[a-z]{2})?)(\.forced|\.sdh)?$`)

// FindSubtitles returns the subtitle files that sit alongside a video file
// in the same directory, matched by sharing the video's filename stem.
func FindSubtitles(videoPath string) ([]string, error) {
	dir := filepath.Dir(videoPath)
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var subs []string
	for _, e := range entries {
		if e.IsDir() || !IsSubtitleFile(e.Name()) {
			continue
		}
		if strings.HasPrefix(e.Name(), stem) {
			subs = append(subs, filepath.Join(dir, e.Name()))
		}
	}
	return subs, nil
}

// subtitleLangCode extracts the language code embedded in a subtitle's
// filename (before its extension), defaulting to "und" (undetermined) per
// the ISO 639-2 convention when no code is present.
func subtitleLangCode(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	m := subtitleLangSuffix.FindStringSubmatch(base)
	if len(m) >= 2 && m[1] != "" {
		return strings.ToLower(m[1])
	}
	return "und"
}

// subtitleDestPath builds the destination path for a subtitle file next to
// the imported video, tagging it with its language code the way Plex/Jellyfin
// expect: "<video stem>.<lang>.<ext>".
func subtitleDestPath(videoDestPath, subSrcPath string) string {
	dir := filepath.Dir(videoDestPath)
	stem := strings.TrimSuffix(filepath.Base(videoDestPath), filepath.Ext(videoDestPath))
	lang := subtitleLangCode(filepath.Base(subSrcPath))
	ext := filepath.Ext(subSrcPath)
	return filepath.Join(dir, stem+"."+lang+ext)
}

// importSubtitles copies subtitle files found alongside the source video to
// the destination directory, tagged with a language code. Best-effort: a
// failed subtitle copy is logged but never fails the import.
func (i *Importer) importSubtitles(videoSrcPath, videoDestPath string) {
	subs, err := FindSubtitles(videoSrcPath)
	if err != nil || len(subs) == 0 {
		return
	}
	for _, src := range subs {
		dest := subtitleDestPath(videoDestPath, src)
		if _, err := CopyFile(src, dest); err != nil {
			i.log.Warn("copy subtitle failed", "src", src, "dest", dest, "error", err)
			continue
		}
		i.log.Debug("subtitle imported", "src", src, "dest", dest)
	}
}
