package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reviewspace/pkg/models"
)

type TargetStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTargetStore(db *sql.DB, logger zerolog.Logger) *TargetStore {
	return &TargetStore{db: db, logger: logger}
}

func (s *TargetStore) FindByID(ctx context.Context, id string) (*models.ReviewTarget, error) {
	query := `
		SELECT id, review_space_id, artifact_ref, submitted_at
		FROM review_targets
		WHERE id = $1
	`

	var target models.ReviewTarget
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&target.ID,
		&target.ReviewSpaceID,
		&target.ArtifactRef,
		&target.SubmittedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query review target: %w", err)
	}
	return &target, nil
}

func (s *TargetStore) FindBySpaceID(ctx context.Context, spaceID string) ([]*models.ReviewTarget, error) {
	query := `
		SELECT id, review_space_id, artifact_ref, submitted_at
		FROM review_targets
		WHERE review_space_id = $1
		ORDER BY submitted_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("query review targets: %w", err)
	}
	defer rows.Close()

	var targets []*models.ReviewTarget
	for rows.Next() {
		var target models.ReviewTarget
		if err := rows.Scan(
			&target.ID,
			&target.ReviewSpaceID,
			&target.ArtifactRef,
			&target.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review target: %w", err)
		}
		targets = append(targets, &target)
	}
	return targets, rows.Err()
}

// Create inserts the target and its initial history in one transaction so a
// target can never exist without a lifecycle record.
func (s *TargetStore) Create(ctx context.Context, target *models.ReviewTarget, initial *models.QaHistory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_targets (id, review_space_id, artifact_ref, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, target.ID, target.ReviewSpaceID, target.ArtifactRef, target.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert review target: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO qa_histories (id, review_target_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, initial.ID, initial.ReviewTargetID, initial.Status, initial.CreatedAt, initial.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert qa history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submit: %w", err)
	}

	s.logger.Debug().Str("target_id", target.ID).Str("history_id", initial.ID).Msg("review target persisted")
	return nil
}
