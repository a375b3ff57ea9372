package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// MetadataRepository implements [models.Repository] for [models.MetadataEntry] persistence.
type MetadataRepository struct {
	db *sql.DB
}

// NewMetadataRepository creates a new [MetadataRepository] with the given database connection
func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// Create stores an entry, replacing any document already stored under its key.
func (r *MetadataRepository) Create(entry *models.MetadataEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if entry.Created.IsZero() {
		entry.Created = now
	}
	entry.Updated = now

	query := `
		INSERT INTO metadata_cache (cache_key, build, locale, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, entry.Key, entry.Build, entry.Locale, entry.Payload, entry.Created, entry.Updated)
	if err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}
	return nil
}

// Get retrieves an entry by cache key
func (r *MetadataRepository) Get(key string) (*models.MetadataEntry, error) {
	query := `
		SELECT cache_key, build, locale, payload, created_at, updated_at
		FROM metadata_cache
		WHERE cache_key = ?
	`

	var entry models.MetadataEntry
	err := r.db.QueryRow(query, key).Scan(&entry.Key, &entry.Build, &entry.Locale, &entry.Payload, &entry.Created, &entry.Updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrMetadataNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	return &entry, nil
}

// Exists reports whether a document is stored under key.
func (r *MetadataRepository) Exists(key string) (bool, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM metadata_cache WHERE cache_key = ?", key).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query metadata: %w", err)
	}
	return n > 0, nil
}

// Delete removes the entry stored under key
func (r *MetadataRepository) Delete(key string) error {
	res, err := r.db.Exec("DELETE FROM metadata_cache WHERE cache_key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return rowsAffected(res, fmt.Errorf("%w: %s", shared.ErrMetadataNotFound, key))
}

// List returns entries matching "build" and/or "locale" criteria, newest build first.
// Payloads are not loaded.
func (r *MetadataRepository) List(criteria map[string]any) ([]*models.MetadataEntry, error) {
	clause, args, err := where(criteria, "build", "locale")
	if err != nil {
		return nil, err
	}

	query := `SELECT cache_key, build, locale, created_at, updated_at FROM metadata_cache` + clause + ` ORDER BY build DESC, locale`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer rows.Close()

	var entries []*models.MetadataEntry
	for rows.Next() {
		var e models.MetadataEntry
		if err := rows.Scan(&e.Key, &e.Build, &e.Locale, &e.Created, &e.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// MetadataStats summarizes the cache table.
type MetadataStats struct {
	Entries int
	Bytes   int64
	Builds  int
}

// Stats counts stored documents and their total size.
func (r *MetadataRepository) Stats() (MetadataStats, error) {
	var s MetadataStats
	query := `SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0), COUNT(DISTINCT build) FROM metadata_cache`
	if err := r.db.QueryRow(query).Scan(&s.Entries, &s.Bytes, &s.Builds); err != nil {
		return s, fmt.Errorf("failed to compute metadata stats: %w", err)
	}
	return s, nil
}

// Clear removes every stored document and returns how many were removed.
func (r *MetadataRepository) Clear() (int64, error) {
	res, err := r.db.Exec("DELETE FROM metadata_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear metadata: %w", err)
	}
	return res.RowsAffected()
}

// newMetadataEntry builds an entry from a cache key produced by [models.MetadataKey].
func newMetadataEntry(key string, payload []byte) (*models.MetadataEntry, error) {
	build, locale, ok := models.ParseMetadataKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: malformed metadata key %q", shared.ErrInvalidInput, key)
	}
	n, err := strconv.Atoi(build)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata key %q has no numeric build", shared.ErrInvalidInput, key)
	}
	return &models.MetadataEntry{Key: key, Build: n, Locale: locale, Payload: payload}, nil
}
