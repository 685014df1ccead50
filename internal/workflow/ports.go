package workflow

import (
	"context"
	"encoding/json"

	"github.com/reviewspace/pkg/models"
)

// Repository ports. Find methods return (nil, nil) when the entity is absent;
// the services decide whether absence is ErrNotFound.

type SpaceRepository interface {
	FindByID(ctx context.Context, id string) (*models.ReviewSpace, error)
	FindByProjectID(ctx context.Context, projectID string) ([]*models.ReviewSpace, error)
	Save(ctx context.Context, space *models.ReviewSpace) error
	// Delete removes the space together with all of its targets and their
	// histories in one atomic unit. No partial cascade may be observable.
	Delete(ctx context.Context, id string) error
}

type TargetRepository interface {
	FindByID(ctx context.Context, id string) (*models.ReviewTarget, error)
	FindBySpaceID(ctx context.Context, spaceID string) ([]*models.ReviewTarget, error)
	// Create persists the target and its initial qa history atomically.
	Create(ctx context.Context, target *models.ReviewTarget, initial *models.QaHistory) error
}

type HistoryRepository interface {
	FindByID(ctx context.Context, id string) (*models.QaHistory, error)
	// FindByTargetID returns the trail newest first.
	FindByTargetID(ctx context.Context, targetID string) ([]*models.QaHistory, error)
	// UpdateStatusCAS applies a compare-and-set: the row moves from observed
	// to next only if its stored status still equals observed. Returns false
	// when the status changed underneath the caller.
	UpdateStatusCAS(ctx context.Context, id string, observed, next QaStatus, outcome json.RawMessage, errorDetail *string) (bool, error)
}

// MembershipSource reads project membership from the externally owned
// project store.
type MembershipSource interface {
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

// AnalysisQueue hands a submitted target to the external processing engine's
// job pipeline.
type AnalysisQueue interface {
	Enqueue(ctx context.Context, historyID, targetID, artifactRef string) error
}
