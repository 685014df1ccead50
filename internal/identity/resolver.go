// Package identity maps authenticated principals (stable employee
// identifiers issued by the external identity provider) to internal users.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewspace/internal/workflow"
	"github.com/reviewspace/pkg/models"
)

// UserSource is the durable store of synced users.
type UserSource interface {
	FindByEmployeeID(ctx context.Context, employeeID string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type Resolver struct {
	users  UserSource
	logger zerolog.Logger
}

func NewResolver(users UserSource, logger zerolog.Logger) *Resolver {
	return &Resolver{users: users, logger: logger}
}

// Resolve returns the internal user for an employee identifier. The caller is
// already authenticated, so absence is a sync failure, not a login failure.
func (r *Resolver) Resolve(ctx context.Context, employeeID string) (*models.User, error) {
	if employeeID == "" {
		return nil, workflow.ErrUserSyncFailed
	}

	user, err := r.users.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		r.logger.Error().Err(err).Str("employee_id", employeeID).Msg("failed to look up user")
		return nil, fmt.Errorf("find user by employee id: %w", err)
	}
	if user == nil {
		r.logger.Warn().Str("employee_id", employeeID).Msg("authenticated principal has no synced user")
		return nil, workflow.ErrUserSyncFailed
	}
	return user, nil
}

// Sync creates the user on first authentication and refreshes the display
// name on later ones. Users are never deleted here.
func (r *Resolver) Sync(ctx context.Context, employeeID, displayName string) (*models.User, error) {
	if employeeID == "" {
		return nil, &workflow.ValidationError{Code: "user.employee_id", Message: "employee id is required"}
	}

	user, err := r.users.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("find user by employee id: %w", err)
	}

	now := time.Now().UTC()
	if user == nil {
		user = &models.User{
			ID:          uuid.NewString(),
			EmployeeID:  employeeID,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.users.Save(ctx, user); err != nil {
			r.logger.Error().Err(err).Str("employee_id", employeeID).Msg("failed to create user")
			return nil, fmt.Errorf("create user: %w", err)
		}
		r.logger.Info().Str("user_id", user.ID).Str("employee_id", employeeID).Msg("user synced")
		return user, nil
	}

	if displayName != "" && displayName != user.DisplayName {
		user.DisplayName = displayName
		user.UpdatedAt = now
		if err := r.users.Save(ctx, user); err != nil {
			r.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to refresh display name")
			return nil, fmt.Errorf("refresh user: %w", err)
		}
	}
	return user, nil
}
