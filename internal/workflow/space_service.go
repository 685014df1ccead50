package workflow

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewspace/pkg/models"
)

const (
	maxSpaceNameLen        = 100
	maxSpaceDescriptionLen = 1000
)

// SpaceService owns the review space lifecycle. Every operation is guarded by
// project membership; existence is checked before membership so the two
// failure modes stay consistent across all call sites.
type SpaceService struct {
	spaces     SpaceRepository
	membership MembershipSource
	logger     zerolog.Logger
}

func NewSpaceService(spaces SpaceRepository, membership MembershipSource, logger zerolog.Logger) *SpaceService {
	return &SpaceService{
		spaces:     spaces,
		membership: membership,
		logger:     logger,
	}
}

// Create validates inputs, verifies membership in the owning project and
// persists a new review space.
func (s *SpaceService) Create(ctx context.Context, projectID, userID, name string, description *string) (*models.ReviewSpace, error) {
	if err := validateSpaceFields(&name, description); err != nil {
		return nil, err
	}

	if err := s.requireMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	space := &models.ReviewSpace{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.spaces.Save(ctx, space); err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("failed to save review space")
		return nil, fmt.Errorf("save review space: %w", err)
	}

	s.logger.Info().
		Str("space_id", space.ID).
		Str("project_id", projectID).
		Str("user_id", userID).
		Msg("review space created")
	return space, nil
}

// Get loads a space and verifies the caller's membership in its project.
func (s *SpaceService) Get(ctx context.Context, spaceID, userID string) (*models.ReviewSpace, error) {
	return s.loadAuthorized(ctx, spaceID, userID)
}

// List returns every space in a project the caller belongs to.
func (s *SpaceService) List(ctx context.Context, projectID, userID string) ([]*models.ReviewSpace, error) {
	if err := s.requireMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	spaces, err := s.spaces.FindByProjectID(ctx, projectID)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("failed to list review spaces")
		return nil, fmt.Errorf("list review spaces: %w", err)
	}
	return spaces, nil
}

// Update applies a partial update: only non-nil fields change.
func (s *SpaceService) Update(ctx context.Context, spaceID, userID string, name, description *string) (*models.ReviewSpace, error) {
	if err := validateSpaceFields(name, description); err != nil {
		return nil, err
	}

	space, err := s.loadAuthorized(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}

	if name == nil && description == nil {
		return nil, &ValidationError{Code: "space.no_fields", Message: "no fields to update"}
	}

	if name != nil {
		space.Name = *name
	}
	if description != nil {
		space.Description = description
	}
	space.UpdatedAt = time.Now().UTC()

	if err := s.spaces.Save(ctx, space); err != nil {
		s.logger.Error().Err(err).Str("space_id", spaceID).Msg("failed to update review space")
		return nil, fmt.Errorf("update review space: %w", err)
	}

	s.logger.Info().Str("space_id", spaceID).Str("user_id", userID).Msg("review space updated")
	return space, nil
}

// Delete removes the space and cascades to all contained targets and their
// histories. The repository performs the cascade in one transaction.
func (s *SpaceService) Delete(ctx context.Context, spaceID, userID string) error {
	if _, err := s.loadAuthorized(ctx, spaceID, userID); err != nil {
		return err
	}

	if err := s.spaces.Delete(ctx, spaceID); err != nil {
		s.logger.Error().Err(err).Str("space_id", spaceID).Msg("failed to delete review space")
		return fmt.Errorf("delete review space: %w", err)
	}

	s.logger.Info().Str("space_id", spaceID).Str("user_id", userID).Msg("review space deleted")
	return nil
}

func (s *SpaceService) loadAuthorized(ctx context.Context, spaceID, userID string) (*models.ReviewSpace, error) {
	space, err := s.spaces.FindByID(ctx, spaceID)
	if err != nil {
		s.logger.Error().Err(err).Str("space_id", spaceID).Msg("failed to load review space")
		return nil, fmt.Errorf("load review space: %w", err)
	}
	if space == nil {
		return nil, ErrNotFound
	}

	if err := s.requireMembership(ctx, space.ProjectID, userID); err != nil {
		return nil, err
	}
	return space, nil
}

func (s *SpaceService) requireMembership(ctx context.Context, projectID, userID string) error {
	member, err := s.membership.IsMember(ctx, projectID, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Str("user_id", userID).Msg("membership check failed")
		return fmt.Errorf("check project membership: %w", err)
	}
	if !member {
		return ErrForbidden
	}
	return nil
}

func validateSpaceFields(name, description *string) error {
	if name != nil {
		n := utf8.RuneCountInString(*name)
		if n < 1 || n > maxSpaceNameLen {
			return &ValidationError{
				Code:    "space.name_length",
				Message: fmt.Sprintf("name must be 1-%d characters", maxSpaceNameLen),
			}
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > maxSpaceDescriptionLen {
		return &ValidationError{
			Code:    "space.description_length",
			Message: fmt.Sprintf("description must be at most %d characters", maxSpaceDescriptionLen),
		}
	}
	return nil
}
