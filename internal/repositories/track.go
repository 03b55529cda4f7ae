package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// TrackRepository implements models.Repository[*models.CachedMatch].
//
// Every resolved match is persisted under its normalized match key so repeat
// syncs can answer lookups locally instead of re-searching the catalog.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedMatch] into the database with generated ID and sequence
func (r *TrackRepository) Create(match *models.CachedMatch) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	match.SetID(shared.GenerateID())
	match.SetSequence(sequence)

	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, match_key, source_title, source_artist, service, service_id, title, artist, uri, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		match.ID(),
		sequence,
		match.MatchKey,
		match.Source.Title,
		match.Source.Artist,
		match.Service,
		match.Match.ID,
		match.Match.Title,
		match.Match.Artist,
		match.Match.URI,
		match.CreatedAt(),
		match.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cached match: %w", err)
	}

	return nil
}

// Get retrieves a cached match by ID, excluding soft-deleted rows
func (r *TrackRepository) Get(id string) (*models.CachedMatch, error) {
	query := selectColumns + ` WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByMatchKey retrieves a cached match by its normalized match key
func (r *TrackRepository) GetByMatchKey(matchKey string) (*models.CachedMatch, error) {
	query := selectColumns + ` WHERE match_key = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, matchKey))
}

// Update modifies an existing cached match in the database
func (r *TrackRepository) Update(match *models.CachedMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE tracks
		SET source_title = ?, source_artist = ?, service = ?, service_id = ?, title = ?, artist = ?, uri = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		match.Source.Title,
		match.Source.Artist,
		match.Service,
		match.Match.ID,
		match.Match.Title,
		match.Match.Artist,
		match.Match.URI,
		now,
		match.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update cached match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cached match not found or already deleted: %s", match.ID())
	}

	match.SetTimestamps(match.CreatedAt(), now)
	return nil
}

// Delete soft-deletes a cached match by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete cached match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cached match not found or already deleted: %s", id)
	}

	return nil
}

// Purge hard-deletes every cached match, including soft-deleted rows.
// Returns the number of removed rows.
func (r *TrackRepository) Purge() (int, error) {
	result, err := r.db.Exec("DELETE FROM tracks")
	if err != nil {
		return 0, fmt.Errorf("failed to purge cached matches: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

// List retrieves all cached matches matching the given criteria, excluding soft-deleted rows
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedMatch, error) {
	query := selectColumns + ` WHERE deleted_at IS NULL`

	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND source_artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.CachedMatch
	for rows.Next() {
		match, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

const selectColumns = `
	SELECT id, sequence, match_key, source_title, source_artist, service, service_id, title, artist, uri, created_at, updated_at
	FROM tracks`

// scanOne scans a single [sql.Row] into a [models.CachedMatch]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.CachedMatch, error) {
	match, err := scanMatch(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: cached match", shared.ErrTrackNotFound)
	}
	return match, err
}

// scanMatch scans one row's columns into a [models.CachedMatch]
func scanMatch(scan func(dest ...any) error) (*models.CachedMatch, error) {
	var (
		id        string
		sequence  int
		matchKey  string
		srcTitle  string
		srcArtist string
		service   string
		serviceID string
		title     string
		artist    string
		uri       string
		createdAt time.Time
		updatedAt time.Time
	)

	err := scan(&id, &sequence, &matchKey, &srcTitle, &srcArtist, &service, &serviceID, &title, &artist, &uri, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached match: %w", err)
	}

	match := models.NewCachedMatch(matchKey, service,
		models.SourceTrack{Title: srcTitle, Artist: srcArtist},
		models.Track{ID: serviceID, Title: title, Artist: artist, URI: uri},
	)
	match.SetID(id)
	match.SetSequence(sequence)
	match.SetTimestamps(createdAt, updatedAt)

	return match, nil
}
