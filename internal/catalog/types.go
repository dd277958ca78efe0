package catalog

import "time"

// ContentType distinguishes the kind of media a Content row represents.
type ContentType string

const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
	ContentTypeArtist ContentType = "artist"
	ContentTypeBook   ContentType = "book"
)

// ContentStatus tracks the monitoring state of content.
type ContentStatus string

const (
	StatusWanted      ContentStatus = "wanted"
	StatusAvailable   ContentStatus = "available"
	StatusUnmonitored ContentStatus = "unmonitored"
)

// Content represents a movie, series, artist, or book — one row per
// top-level library item. TMDBID/TVDBID are nil when the item hasn't been
// matched against external metadata.
type Content struct {
	ID             int64
	Type           ContentType
	TMDBID         *int64
	TVDBID         *int64
	Title          string
	Year           int
	Status         ContentStatus
	QualityProfile string
	RootPath       string

	// Scanner-maintained fields (movies/artists/books: a Content row can
	// point directly at a file; series route file-level fields through
	// Episode instead).
	Path             string
	SizeBytes        int64
	MissingSince     *time.Time
	MatchConfidence  float64
	NeedsMatchReview bool

	AddedAt   time.Time
	UpdatedAt time.Time
}

// Episode represents a single episode of a series.
type Episode struct {
	ID         int64
	ContentID  int64
	Season     int
	Episode    int
	EpisodeEnd int // last episode covered, for multi-episode files; 0 if single
	Absolute   int // anime absolute episode number, 0 if not anime-numbered
	Title      string
	Status     ContentStatus
	AirDate    *time.Time

	Path             string
	SizeBytes        int64
	MissingSince     *time.Time
	MatchConfidence  float64
	NeedsMatchReview bool
}

// File represents a media file on disk associated with Content or an Episode.
type File struct {
	ID        int64
	ContentID int64
	EpisodeID *int64 // nil for movies
	Path      string
	SizeBytes int64
	Quality   string
	Source    string
	AddedAt   time.Time
}
