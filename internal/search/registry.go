package search

import (
	"database/sql"
	"fmt"
	"time"
)

// IndexerKind distinguishes the wire protocol an indexer speaks.
type IndexerKind string

const (
	IndexerKindNewznab  IndexerKind = "newznab"
	IndexerKindTorznab  IndexerKind = "torznab"
	IndexerKindProwlarr IndexerKind = "prowlarr"
)

// IndexerRecord is a persisted indexer registration (table `indexers`).
type IndexerRecord struct {
	ID       int64
	Name     string
	Kind     IndexerKind
	BaseURL  string
	APIKey   string
	Enabled  bool
	Priority int
	AddedAt  time.Time
}

// RegistryStore is the catalog-backed store for indexer registrations. It
// is separate from catalog.Store because indexers are a search-domain
// concept, not a media one, but it follows the same querier/mapSQLiteError
// pattern used throughout internal/catalog.
type RegistryStore struct {
	db *sql.DB
}

// NewRegistryStore wraps an existing *sql.DB (shared with catalog.Store).
func NewRegistryStore(db *sql.DB) *RegistryStore {
	return &RegistryStore{db: db}
}

const indexerCols = `id, name, kind, base_url, api_key, enabled, priority, added_at`

func scanIndexer(row *sql.Row) (*IndexerRecord, error) {
	r := &IndexerRecord{}
	if err := row.Scan(&r.ID, &r.Name, &r.Kind, &r.BaseURL, &r.APIKey, &r.Enabled, &r.Priority, &r.AddedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// Add inserts a new indexer registration.
func (s *RegistryStore) Add(r *IndexerRecord) error {
	r.AddedAt = time.Now()
	result, err := s.db.Exec(`
		INSERT INTO indexers (name, kind, base_url, api_key, enabled, priority, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Kind, r.BaseURL, r.APIKey, r.Enabled, r.Priority, r.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("add indexer %s: %w", r.Name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// Get returns an indexer registration by id.
func (s *RegistryStore) Get(id int64) (*IndexerRecord, error) {
	row := s.db.QueryRow(`SELECT `+indexerCols+` FROM indexers WHERE id = ?`, id)
	return scanIndexer(row)
}

// List returns every registered indexer ordered by priority (highest first).
func (s *RegistryStore) List() ([]*IndexerRecord, error) {
	rows, err := s.db.Query(`SELECT ` + indexerCols + ` FROM indexers ORDER BY priority DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list indexers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*IndexerRecord
	for rows.Next() {
		r := &IndexerRecord{}
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &r.BaseURL, &r.APIKey, &r.Enabled, &r.Priority, &r.AddedAt); err != nil {
			return nil, fmt.Errorf("scan indexer: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListEnabled returns only the enabled indexers, by priority.
func (s *RegistryStore) ListEnabled() ([]*IndexerRecord, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

// SetEnabled toggles an indexer's enabled flag.
func (s *RegistryStore) SetEnabled(id int64, enabled bool) error {
	_, err := s.db.Exec(`UPDATE indexers SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("set indexer %d enabled=%v: %w", id, enabled, err)
	}
	return nil
}

// Remove deletes an indexer registration.
func (s *RegistryStore) Remove(id int64) error {
	_, err := s.db.Exec(`DELETE FROM indexers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove indexer %d: %w", id, err)
	}
	return nil
}
