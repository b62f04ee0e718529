package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const buildColumns = `id, sequence, scrape_id, playlist_id, name, added, skipped, failed, created_at, updated_at, deleted_at`

var _ models.Repository[*models.Build] = (*BuildRepository)(nil)

// BuildRepository implements models.Repository[*models.Build] for the playlist build log.
type BuildRepository struct {
	db *sql.DB
}

// NewBuildRepository creates a new BuildRepository with the given database connection
func NewBuildRepository(db *sql.DB) *BuildRepository {
	return &BuildRepository{db: db}
}

// Create inserts a new build with generated ID and sequence
func (r *BuildRepository) Create(build *models.Build) error {
	if err := build.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "builds")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO builds (id, sequence, scrape_id, playlist_id, name, added, skipped, failed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		build.ScrapeID(),
		build.PlaylistID(),
		build.Name(),
		build.Added(),
		build.Skipped(),
		build.Failed(),
		build.CreatedAt(),
		build.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}

	build.SetID(id)
	build.SetSequence(sequence)
	return nil
}

// Get retrieves a build by ID, excluding soft-deleted builds
func (r *BuildRepository) Get(id string) (*models.Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id), id)
}

// Update modifies the tallies of an existing build
func (r *BuildRepository) Update(build *models.Build) error {
	if err := build.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	build.SetUpdatedAt(now)

	query := `
		UPDATE builds
		SET added = ?, skipped = ?, failed = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, build.Added(), build.Skipped(), build.Failed(), now, build.ID())
	if err != nil {
		return fmt.Errorf("failed to update build: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: build %s", shared.ErrRecordNotFound, build.ID())
	}

	return nil
}

// Delete soft-deletes a build by ID
func (r *BuildRepository) Delete(id string) error {
	ok, err := softDelete(r.db, "builds", id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: build %s", shared.ErrRecordNotFound, id)
	}
	return nil
}

// List retrieves builds newest first. Supported criteria: "scrape_id" (string), "limit" (int).
func (r *BuildRepository) List(criteria map[string]any) ([]*models.Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds WHERE deleted_at IS NULL`
	args := []any{}

	if scrapeID, ok := criteria["scrape_id"].(string); ok && scrapeID != "" {
		query += " AND scrape_id = ?"
		args = append(args, scrapeID)
	}

	query += " ORDER BY sequence DESC"

	if limit := limitArg(criteria); limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	var builds []*models.Build
	for rows.Next() {
		build, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		builds = append(builds, build)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return builds, nil
}

func (r *BuildRepository) scan(row rowScanner, key string) (*models.Build, error) {
	var (
		id         string
		sequence   int
		scrapeID   string
		playlistID string
		name       string
		added      int
		skipped    int
		failed     int
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &scrapeID, &playlistID, &name, &added, &skipped, &failed, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: build %s", shared.ErrRecordNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan build: %w", err)
	}

	return models.RestoreBuild(id, sequence, scrapeID, playlistID, name, added, skipped, failed, createdAt, updatedAt, nullTimePtr(deletedAt)), nil
}
