// Package storage provides the Postgres adapters behind the workflow ports.
// Queries are plain parameterized SQL over database/sql; multi-row writes run
// inside a single transaction.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reviewspace/pkg/models"
)

type SpaceStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSpaceStore(db *sql.DB, logger zerolog.Logger) *SpaceStore {
	return &SpaceStore{db: db, logger: logger}
}

func (s *SpaceStore) FindByID(ctx context.Context, id string) (*models.ReviewSpace, error) {
	query := `
		SELECT id, project_id, name, description, created_at, updated_at
		FROM review_spaces
		WHERE id = $1
	`

	var space models.ReviewSpace
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&space.ID,
		&space.ProjectID,
		&space.Name,
		&description,
		&space.CreatedAt,
		&space.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query review space: %w", err)
	}

	if description.Valid {
		space.Description = &description.String
	}
	return &space, nil
}

func (s *SpaceStore) FindByProjectID(ctx context.Context, projectID string) ([]*models.ReviewSpace, error) {
	query := `
		SELECT id, project_id, name, description, created_at, updated_at
		FROM review_spaces
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query review spaces: %w", err)
	}
	defer rows.Close()

	var spaces []*models.ReviewSpace
	for rows.Next() {
		var space models.ReviewSpace
		var description sql.NullString
		if err := rows.Scan(
			&space.ID,
			&space.ProjectID,
			&space.Name,
			&description,
			&space.CreatedAt,
			&space.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review space: %w", err)
		}
		if description.Valid {
			space.Description = &description.String
		}
		spaces = append(spaces, &space)
	}
	return spaces, rows.Err()
}

// Save upserts the space keyed by id.
func (s *SpaceStore) Save(ctx context.Context, space *models.ReviewSpace) error {
	query := `
		INSERT INTO review_spaces (id, project_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`

	var description sql.NullString
	if space.Description != nil {
		description = sql.NullString{String: *space.Description, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		space.ID, space.ProjectID, space.Name, description, space.CreatedAt, space.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert review space: %w", err)
	}
	return nil
}

// Delete removes the space and cascades to its targets and their histories in
// one transaction, so a reader never sees a partially deleted space.
func (s *SpaceStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM qa_histories
		WHERE review_target_id IN (SELECT id FROM review_targets WHERE review_space_id = $1)
	`, id)
	if err != nil {
		return fmt.Errorf("delete qa histories: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM review_targets WHERE review_space_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review targets: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM review_spaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review space: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	s.logger.Info().Str("space_id", id).Msg("review space cascade deleted")
	return nil
}
