package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewspace/pkg/models"
)

// TargetService handles submission and retrieval of review targets. Retrieval
// walks the full ownership chain (target → space → project) before anything
// is returned, so a broken chain is indistinguishable from a missing target.
type TargetService struct {
	targets    TargetRepository
	spaces     SpaceRepository
	histories  HistoryRepository
	membership MembershipSource
	queue      AnalysisQueue
	logger     zerolog.Logger
}

func NewTargetService(
	targets TargetRepository,
	spaces SpaceRepository,
	histories HistoryRepository,
	membership MembershipSource,
	queue AnalysisQueue,
	logger zerolog.Logger,
) *TargetService {
	return &TargetService{
		targets:    targets,
		spaces:     spaces,
		histories:  histories,
		membership: membership,
		queue:      queue,
		logger:     logger,
	}
}

// Submit creates a target inside a space together with its initial pending
// history, then enqueues the analysis job. Target and history are persisted
// in one atomic unit; enqueueing happens after the write so a queue failure
// never leaves a half-created target behind.
func (s *TargetService) Submit(ctx context.Context, spaceID, userID, artifactRef string) (*models.ReviewTarget, error) {
	if strings.TrimSpace(artifactRef) == "" {
		return nil, &ValidationError{Code: "target.artifact_ref", Message: "artifact reference is required"}
	}

	space, err := s.spaces.FindByID(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load review space: %w", err)
	}
	if space == nil {
		return nil, ErrNotFound
	}
	if err := s.requireMembership(ctx, space.ProjectID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	target := &models.ReviewTarget{
		ID:            uuid.NewString(),
		ReviewSpaceID: spaceID,
		ArtifactRef:   artifactRef,
		SubmittedAt:   now,
	}
	history := &models.QaHistory{
		ID:             uuid.NewString(),
		ReviewTargetID: target.ID,
		Status:         StatusPending.String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.targets.Create(ctx, target, history); err != nil {
		s.logger.Error().Err(err).Str("space_id", spaceID).Msg("failed to create review target")
		return nil, fmt.Errorf("create review target: %w", err)
	}

	if err := s.queue.Enqueue(ctx, history.ID, target.ID, artifactRef); err != nil {
		// The target stays pending; a retry can re-enqueue it.
		s.logger.Error().Err(err).Str("target_id", target.ID).Msg("failed to enqueue analysis")
		return nil, fmt.Errorf("enqueue analysis: %w", err)
	}

	s.logger.Info().
		Str("target_id", target.ID).
		Str("space_id", spaceID).
		Str("history_id", history.ID).
		Msg("review target submitted")
	return target, nil
}

// Get returns the target with its derived result view.
func (s *TargetService) Get(ctx context.Context, targetID, userID string) (*models.ReviewTargetView, error) {
	target, _, err := s.loadAuthorized(ctx, targetID, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.latestHistory(ctx, targetID)
	if err != nil {
		return nil, err
	}

	return &models.ReviewTargetView{
		Target: *target,
		Result: BuildResult(latest),
	}, nil
}

// Retry re-queues a failed analysis. Only the explicit error → pending move
// is allowed; anything else conflicts.
func (s *TargetService) Retry(ctx context.Context, targetID, userID string) error {
	target, _, err := s.loadAuthorized(ctx, targetID, userID)
	if err != nil {
		return err
	}

	latest, err := s.latestHistory(ctx, targetID)
	if err != nil {
		return err
	}
	if latest == nil || !ReconstructQaStatus(latest.Status).IsError() {
		return ErrStatusConflict
	}

	ok, err := s.histories.UpdateStatusCAS(ctx, latest.ID, StatusError, StatusPending, nil, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("history_id", latest.ID).Msg("failed to reset history for retry")
		return fmt.Errorf("reset history: %w", err)
	}
	if !ok {
		return ErrStatusConflict
	}

	if err := s.queue.Enqueue(ctx, latest.ID, target.ID, target.ArtifactRef); err != nil {
		s.logger.Error().Err(err).Str("target_id", target.ID).Msg("failed to enqueue retry")
		return fmt.Errorf("enqueue analysis: %w", err)
	}

	s.logger.Info().Str("target_id", target.ID).Str("history_id", latest.ID).Msg("analysis retry queued")
	return nil
}

func (s *TargetService) loadAuthorized(ctx context.Context, targetID, userID string) (*models.ReviewTarget, *models.ReviewSpace, error) {
	target, err := s.targets.FindByID(ctx, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load review target: %w", err)
	}
	if target == nil {
		return nil, nil, ErrNotFound
	}

	space, err := s.spaces.FindByID(ctx, target.ReviewSpaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("load review space: %w", err)
	}
	if space == nil {
		// Broken ownership chain; treat like the target itself being gone.
		return nil, nil, ErrNotFound
	}

	if err := s.requireMembership(ctx, space.ProjectID, userID); err != nil {
		return nil, nil, err
	}
	return target, space, nil
}

func (s *TargetService) latestHistory(ctx context.Context, targetID string) (*models.QaHistory, error) {
	trail, err := s.histories.FindByTargetID(ctx, targetID)
	if err != nil {
		s.logger.Error().Err(err).Str("target_id", targetID).Msg("failed to load qa history trail")
		return nil, fmt.Errorf("load qa histories: %w", err)
	}
	if len(trail) == 0 {
		return nil, nil
	}
	return trail[0], nil
}

func (s *TargetService) requireMembership(ctx context.Context, projectID, userID string) error {
	member, err := s.membership.IsMember(ctx, projectID, userID)
	if err != nil {
		return fmt.Errorf("check project membership: %w", err)
	}
	if !member {
		return ErrForbidden
	}
	return nil
}
