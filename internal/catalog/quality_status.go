package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// SearchStatus tracks where an item sits in the upgrade controller's
// search/backoff lifecycle.
type SearchStatus string

const (
	SearchIdle         SearchStatus = "idle"
	SearchSearching    SearchStatus = "searching"
	SearchPendingRetry SearchStatus = "pending_retry"
	SearchPaused       SearchStatus = "paused"
)

// QualityStatus is the stamped quality record for a held Content or
// Episode file: exactly one row per media item, per spec.md invariant 3.
type QualityStatus struct {
	ID             int64
	ContentID      *int64
	EpisodeID      *int64
	Resolution     string
	Source         string
	Codec          string
	HDR            string
	Audio          string
	Edition        string
	IsRemux        bool
	Score          int
	SearchStatus   SearchStatus
	SearchAttempts int
	NextSearchAt   *time.Time
	UpdatedAt      time.Time
}

func upsertQualityStatus(q querier, s *QualityStatus) error {
	now := time.Now()
	s.UpdatedAt = now

	var existingID int64
	var err error
	if s.EpisodeID != nil {
		err = q.QueryRow(`SELECT id FROM quality_statuses WHERE episode_id = ?`, *s.EpisodeID).Scan(&existingID)
	} else {
		err = q.QueryRow(`SELECT id FROM quality_statuses WHERE content_id = ? AND episode_id IS NULL`, *s.ContentID).Scan(&existingID)
	}

	switch {
	case err == nil:
		s.ID = existingID
		_, err = q.Exec(`
			UPDATE quality_statuses SET resolution = ?, source = ?, codec = ?, hdr = ?, audio = ?, edition = ?,
				is_remux = ?, score = ?, search_status = ?, search_attempts = ?, next_search_at = ?, updated_at = ?
			WHERE id = ?`,
			s.Resolution, s.Source, s.Codec, s.HDR, s.Audio, s.Edition, s.IsRemux, s.Score,
			s.SearchStatus, s.SearchAttempts, s.NextSearchAt, now, s.ID,
		)
		if err != nil {
			return fmt.Errorf("update quality status: %w", mapSQLiteError(err))
		}
		return nil
	case err == sql.ErrNoRows:
		result, err := q.Exec(`
			INSERT INTO quality_statuses (content_id, episode_id, resolution, source, codec, hdr, audio, edition,
				is_remux, score, search_status, search_attempts, next_search_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ContentID, s.EpisodeID, s.Resolution, s.Source, s.Codec, s.HDR, s.Audio, s.Edition,
			s.IsRemux, s.Score, s.SearchStatus, s.SearchAttempts, s.NextSearchAt, now,
		)
		if err != nil {
			return fmt.Errorf("insert quality status: %w", mapSQLiteError(err))
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get last insert id: %w", err)
		}
		s.ID = id
		return nil
	default:
		return fmt.Errorf("lookup quality status: %w", mapSQLiteError(err))
	}
}

// UpsertQualityStatus creates or updates the single quality status row for
// a Content or Episode (keyed by whichever of ContentID/EpisodeID is set).
func (s *Store) UpsertQualityStatus(qs *QualityStatus) error { return upsertQualityStatus(s.db, qs) }

// UpsertQualityStatus within a transaction.
func (t *Tx) UpsertQualityStatus(qs *QualityStatus) error { return upsertQualityStatus(t.tx, qs) }

func scanQualityStatus(row *sql.Row) (*QualityStatus, error) {
	s := &QualityStatus{}
	err := row.Scan(&s.ID, &s.ContentID, &s.EpisodeID, &s.Resolution, &s.Source, &s.Codec, &s.HDR, &s.Audio,
		&s.Edition, &s.IsRemux, &s.Score, &s.SearchStatus, &s.SearchAttempts, &s.NextSearchAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

const qualityStatusCols = `id, content_id, episode_id, resolution, source, codec, hdr, audio, edition, is_remux, score, search_status, search_attempts, next_search_at, updated_at`

// GetQualityStatusForContent returns the quality status for a movie/top-level
// content row. Returns ErrNotFound if none has been stamped yet.
func (s *Store) GetQualityStatusForContent(contentID int64) (*QualityStatus, error) {
	row := s.db.QueryRow(`SELECT `+qualityStatusCols+` FROM quality_statuses WHERE content_id = ? AND episode_id IS NULL`, contentID)
	qs, err := scanQualityStatus(row)
	if err != nil {
		return nil, fmt.Errorf("get quality status for content %d: %w", contentID, mapSQLiteError(err))
	}
	return qs, nil
}

// GetQualityStatusForEpisode returns the quality status for an episode.
// Returns ErrNotFound if none has been stamped yet.
func (s *Store) GetQualityStatusForEpisode(episodeID int64) (*QualityStatus, error) {
	row := s.db.QueryRow(`SELECT `+qualityStatusCols+` FROM quality_statuses WHERE episode_id = ?`, episodeID)
	qs, err := scanQualityStatus(row)
	if err != nil {
		return nil, fmt.Errorf("get quality status for episode %d: %w", episodeID, mapSQLiteError(err))
	}
	return qs, nil
}

// UpgradeCandidate pairs a quality status with enough of its owning
// Content/Episode to drive an upgrade search.
type UpgradeCandidate struct {
	Status    *QualityStatus
	ContentID int64
	EpisodeID *int64
	Title     string
	Type      ContentType
	Season    int
	Episode   int
}

// ListUpgradeCandidates returns every quality status that is not paused,
// lowest score first, optionally restricted to one content type and capped
// at limit rows (0 = no limit). It does not compare scores against a preset
// cutoff.
func (s *Store) ListUpgradeCandidates(limit int, mediaType *ContentType) ([]*UpgradeCandidate, error) {
	query := `
		SELECT qs.id, qs.content_id, qs.episode_id, qs.resolution, qs.source, qs.codec, qs.hdr, qs.audio,
			qs.edition, qs.is_remux, qs.score, qs.search_status, qs.search_attempts, qs.next_search_at, qs.updated_at,
			c.id, c.title, c.type,
			e.id, e.season, e.episode, ec.id, ec.title, ec.type
		FROM quality_statuses qs
		LEFT JOIN content c ON c.id = qs.content_id
		LEFT JOIN episodes e ON e.id = qs.episode_id
		LEFT JOIN content ec ON ec.id = e.content_id
		WHERE qs.search_status != ?`

	args := []any{SearchPaused}
	if mediaType != nil {
		query += ` AND (c.type = ? OR ec.type = ?)`
		args = append(args, *mediaType, *mediaType)
	}
	query += ` ORDER BY qs.score ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list upgrade candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*UpgradeCandidate
	for rows.Next() {
		qs := &QualityStatus{}
		var contentID sql.NullInt64
		var contentTitle sql.NullString
		var contentType sql.NullString
		var episodeID sql.NullInt64
		var season, episode sql.NullInt64
		var episodeContentID sql.NullInt64
		var episodeContentTitle sql.NullString
		var episodeContentType sql.NullString

		if err := rows.Scan(&qs.ID, &qs.ContentID, &qs.EpisodeID, &qs.Resolution, &qs.Source, &qs.Codec, &qs.HDR,
			&qs.Audio, &qs.Edition, &qs.IsRemux, &qs.Score, &qs.SearchStatus, &qs.SearchAttempts, &qs.NextSearchAt, &qs.UpdatedAt,
			&contentID, &contentTitle, &contentType, &episodeID, &season, &episode,
			&episodeContentID, &episodeContentTitle, &episodeContentType); err != nil {
			return nil, fmt.Errorf("scan upgrade candidate: %w", err)
		}

		cand := &UpgradeCandidate{Status: qs}
		if qs.EpisodeID != nil {
			if episodeID.Valid {
				epID := episodeID.Int64
				cand.EpisodeID = &epID
			}
			if episodeContentID.Valid {
				cand.ContentID = episodeContentID.Int64
			}
			if episodeContentTitle.Valid {
				cand.Title = episodeContentTitle.String
			}
			if episodeContentType.Valid {
				cand.Type = ContentType(episodeContentType.String)
			}
			cand.Season = int(season.Int64)
			cand.Episode = int(episode.Int64)
		} else if qs.ContentID != nil {
			cand.ContentID = *qs.ContentID
			if contentTitle.Valid {
				cand.Title = contentTitle.String
			}
			if contentType.Valid {
				cand.Type = ContentType(contentType.String)
			}
		}
		results = append(results, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upgrade candidates: %w", err)
	}
	return results, nil
}
