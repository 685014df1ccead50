package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reviewspace/internal/workflow"
	"github.com/reviewspace/pkg/models"
)

type HistoryStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewHistoryStore(db *sql.DB, logger zerolog.Logger) *HistoryStore {
	return &HistoryStore{db: db, logger: logger}
}

func (s *HistoryStore) FindByID(ctx context.Context, id string) (*models.QaHistory, error) {
	query := `
		SELECT id, review_target_id, status, outcome, error_detail, created_at, updated_at
		FROM qa_histories
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)
	history, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query qa history: %w", err)
	}
	return history, nil
}

func (s *HistoryStore) FindByTargetID(ctx context.Context, targetID string) ([]*models.QaHistory, error) {
	query := `
		SELECT id, review_target_id, status, outcome, error_detail, created_at, updated_at
		FROM qa_histories
		WHERE review_target_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("query qa histories: %w", err)
	}
	defer rows.Close()

	var trail []*models.QaHistory
	for rows.Next() {
		history, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan qa history: %w", err)
		}
		trail = append(trail, history)
	}
	return trail, rows.Err()
}

// UpdateStatusCAS moves a history row from observed to next only if the
// stored status still equals observed. The WHERE clause is the compare half
// of the compare-and-set; zero rows affected means a concurrent writer won.
func (s *HistoryStore) UpdateStatusCAS(ctx context.Context, id string, observed, next workflow.QaStatus, outcome json.RawMessage, errorDetail *string) (bool, error) {
	query := `
		UPDATE qa_histories
		SET status = $1, outcome = $2, error_detail = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	var outcomeVal any
	if len(outcome) > 0 {
		outcomeVal = []byte(outcome)
	}
	var detail sql.NullString
	if errorDetail != nil {
		detail = sql.NullString{String: *errorDetail, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query, next.String(), outcomeVal, detail, id, observed.String())
	if err != nil {
		return false, fmt.Errorf("update qa history: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Debug().
			Str("history_id", id).
			Str("observed", observed.String()).
			Str("next", next.String()).
			Msg("status cas lost")
		return false, nil
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (*models.QaHistory, error) {
	var history models.QaHistory
	var outcome []byte
	var detail sql.NullString

	err := row.Scan(
		&history.ID,
		&history.ReviewTargetID,
		&history.Status,
		&outcome,
		&detail,
		&history.CreatedAt,
		&history.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(outcome) > 0 {
		history.Outcome = json.RawMessage(outcome)
	}
	if detail.Valid {
		history.ErrorDetail = &detail.String
	}
	return &history, nil
}
