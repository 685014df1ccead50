package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// MembershipStore reads project membership. Projects are owned by an external
// system; this table is a read model synced into the same database.
type MembershipStore struct {
	db *sql.DB
}

func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

func (s *MembershipStore) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM project_members
			WHERE project_id = $1 AND user_id = $2
		)
	`

	var member bool
	if err := s.db.QueryRowContext(ctx, query, projectID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("query project membership: %w", err)
	}
	return member, nil
}
