package scanner

import "context"

// ProbeResult is the output of inspecting a media file's actual stream
// properties (as opposed to what its filename claims).
type ProbeResult struct {
	Duration   float64 // seconds
	Resolution string  // e.g. "1080p"
	VideoCodec string
	AudioCodec string
	AudioLangs []string
	SubLangs   []string
}

// Prober inspects a media file's real stream properties. No concrete
// implementation ships here: wiring an actual ffprobe/mediainfo binary is
// out of scope, per spec.md's external-tool Non-goals. Callers that need
// it supply their own implementation; the scanner falls back to
// filename-only parsing when Prober is nil.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
}

// SubtitleFile describes a subtitle track, extracted or fetched.
type SubtitleFile struct {
	Path     string
	Language string
	Forced   bool
}

// SubtitleExtractor pulls subtitle tracks embedded in a video container
// out to sidecar files. Interface only — no concrete implementation.
type SubtitleExtractor interface {
	ExtractSubtitles(ctx context.Context, videoPath, outDir string) ([]SubtitleFile, error)
}

// SubtitleFetcher retrieves subtitles from an external provider for a
// media item that doesn't have them embedded. Interface only.
type SubtitleFetcher interface {
	FetchSubtitles(ctx context.Context, mediaKey string, langs []string) ([]SubtitleFile, error)
}

// MovieMetadata and ShowMetadata are the minimal external-metadata shapes
// the scanner would stamp onto a Content/Episode row if a MetadataService
// were wired in.
type MovieMetadata struct {
	TMDBID int64
	Title  string
	Year   int
}

type ShowMetadata struct {
	TVDBID int64
	Title  string
	Year   int
}

// MetadataService resolves a parsed title/year against an external
// metadata provider (TMDB/TVDB). Interface only — no concrete
// implementation ships here, per spec.md's external-service Non-goals.
type MetadataService interface {
	FetchMovieMetadata(ctx context.Context, title string, year int) (MovieMetadata, error)
	FetchShowMetadata(ctx context.Context, title string, year int) (ShowMetadata, error)
}
