package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reviewspace/pkg/models"
)

type UserStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserStore(db *sql.DB, logger zerolog.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

func (s *UserStore) FindByEmployeeID(ctx context.Context, employeeID string) (*models.User, error) {
	query := `
		SELECT id, employee_id, display_name, created_at, updated_at
		FROM users
		WHERE employee_id = $1
	`

	var user models.User
	err := s.db.QueryRowContext(ctx, query, employeeID).Scan(
		&user.ID,
		&user.EmployeeID,
		&user.DisplayName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Save upserts keyed by the stable employee identifier, refreshing only the
// display name on conflict. Users are never deleted through this store.
func (s *UserStore) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, employee_id, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.EmployeeID, user.DisplayName, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		s.logger.Error().Err(err).Str("employee_id", user.EmployeeID).Msg("failed to upsert user")
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
