package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const scrapeColumns = `id, sequence, source, url, strategy, songs, error, created_at, updated_at, deleted_at`

var _ models.Repository[*models.Scrape] = (*ScrapeRepository)(nil)

// ScrapeRepository implements models.Repository[*models.Scrape] for scrape history.
type ScrapeRepository struct {
	db *sql.DB
}

// NewScrapeRepository creates a new ScrapeRepository with the given database connection
func NewScrapeRepository(db *sql.DB) *ScrapeRepository {
	return &ScrapeRepository{db: db}
}

// Create inserts a new scrape into the database with generated ID and sequence
func (r *ScrapeRepository) Create(scrape *models.Scrape) error {
	if err := scrape.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	songs, err := scrape.SongsJSON()
	if err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "scrapes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO scrapes (id, sequence, source, url, strategy, song_count, songs, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		scrape.Source(),
		scrape.URL(),
		scrape.Strategy(),
		scrape.SongCount(),
		songs,
		scrape.Error(),
		scrape.CreatedAt(),
		scrape.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scrape: %w", err)
	}

	scrape.SetID(id)
	scrape.SetSequence(sequence)
	return nil
}

// Get retrieves a scrape by ID, excluding soft-deleted scrapes
func (r *ScrapeRepository) Get(id string) (*models.Scrape, error) {
	query := `SELECT ` + scrapeColumns + ` FROM scrapes WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id), id)
}

// GetBySequence retrieves a scrape by its sequence number, as shown in history listings
func (r *ScrapeRepository) GetBySequence(sequence int) (*models.Scrape, error) {
	query := `SELECT ` + scrapeColumns + ` FROM scrapes WHERE sequence = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
}

// Update replaces the stored outcome of an existing scrape
func (r *ScrapeRepository) Update(scrape *models.Scrape) error {
	if err := scrape.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	songs, err := scrape.SongsJSON()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	scrape.SetUpdatedAt(now)

	query := `
		UPDATE scrapes
		SET strategy = ?, song_count = ?, songs = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, scrape.Strategy(), scrape.SongCount(), songs, scrape.Error(), now, scrape.ID())
	if err != nil {
		return fmt.Errorf("failed to update scrape: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: scrape %s", shared.ErrRecordNotFound, scrape.ID())
	}

	return nil
}

// Delete soft-deletes a scrape by ID
func (r *ScrapeRepository) Delete(id string) error {
	ok, err := softDelete(r.db, "scrapes", id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: scrape %s", shared.ErrRecordNotFound, id)
	}
	return nil
}

// List retrieves scrapes matching the given criteria, newest first, excluding soft-deleted scrapes.
//
// Supported criteria: "url" (string), "source" (string), "failed" (bool), "limit" (int).
func (r *ScrapeRepository) List(criteria map[string]any) ([]*models.Scrape, error) {
	query := `SELECT ` + scrapeColumns + ` FROM scrapes WHERE deleted_at IS NULL`
	args := []any{}

	if url, ok := criteria["url"].(string); ok && url != "" {
		query += " AND url = ?"
		args = append(args, url)
	}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	if failed, ok := criteria["failed"].(bool); ok {
		if failed {
			query += " AND error != ''"
		} else {
			query += " AND error = ''"
		}
	}

	query += " ORDER BY sequence DESC"

	if limit := limitArg(criteria); limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrapes: %w", err)
	}
	defer rows.Close()

	var scrapes []*models.Scrape
	for rows.Next() {
		scrape, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		scrapes = append(scrapes, scrape)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return scrapes, nil
}

// Recent returns the latest n scrapes
func (r *ScrapeRepository) Recent(n int) ([]*models.Scrape, error) {
	return r.List(map[string]any{"limit": n})
}

func (r *ScrapeRepository) scan(row rowScanner, key string) (*models.Scrape, error) {
	var (
		id        string
		sequence  int
		source    string
		url       string
		strategy  string
		songs     string
		errMsg    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &source, &url, &strategy, &songs, &errMsg, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: scrape %s", shared.ErrRecordNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scrape: %w", err)
	}

	return models.RestoreScrape(id, sequence, source, url, strategy, songs, errMsg, createdAt, updatedAt, nullTimePtr(deletedAt))
}
