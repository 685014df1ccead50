package workflow

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/reviewspace/pkg/models"
)

// In-memory fakes for the repository ports. They serialize everything behind
// one mutex, which is enough fidelity for exercising the services.

type fakeSpaceRepo struct {
	mu     sync.Mutex
	spaces map[string]*models.ReviewSpace

	targets   *fakeTargetRepo
	histories *fakeHistoryRepo
}

func newFakeSpaceRepo(targets *fakeTargetRepo, histories *fakeHistoryRepo) *fakeSpaceRepo {
	return &fakeSpaceRepo{
		spaces:    make(map[string]*models.ReviewSpace),
		targets:   targets,
		histories: histories,
	}
}

func (r *fakeSpaceRepo) FindByID(_ context.Context, id string) (*models.ReviewSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[id]
	if !ok {
		return nil, nil
	}
	copied := *space
	return &copied, nil
}

func (r *fakeSpaceRepo) FindByProjectID(_ context.Context, projectID string) ([]*models.ReviewSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ReviewSpace
	for _, space := range r.spaces {
		if space.ProjectID == projectID {
			copied := *space
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSpaceRepo) Save(_ context.Context, space *models.ReviewSpace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *space
	r.spaces[space.ID] = &copied
	return nil
}

func (r *fakeSpaceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spaces, id)
	if r.targets != nil {
		for _, target := range r.targets.bySpace(id) {
			r.targets.remove(target.ID)
			if r.histories != nil {
				r.histories.removeByTarget(target.ID)
			}
		}
	}
	return nil
}

type fakeTargetRepo struct {
	mu      sync.Mutex
	targets map[string]*models.ReviewTarget

	histories *fakeHistoryRepo
}

func newFakeTargetRepo(histories *fakeHistoryRepo) *fakeTargetRepo {
	return &fakeTargetRepo{
		targets:   make(map[string]*models.ReviewTarget),
		histories: histories,
	}
}

func (r *fakeTargetRepo) FindByID(_ context.Context, id string) (*models.ReviewTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.targets[id]
	if !ok {
		return nil, nil
	}
	copied := *target
	return &copied, nil
}

func (r *fakeTargetRepo) FindBySpaceID(_ context.Context, spaceID string) ([]*models.ReviewTarget, error) {
	return r.bySpace(spaceID), nil
}

func (r *fakeTargetRepo) Create(ctx context.Context, target *models.ReviewTarget, initial *models.QaHistory) error {
	r.mu.Lock()
	copied := *target
	r.targets[target.ID] = &copied
	r.mu.Unlock()
	return r.histories.save(initial)
}

func (r *fakeTargetRepo) bySpace(spaceID string) []*models.ReviewTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ReviewTarget
	for _, target := range r.targets {
		if target.ReviewSpaceID == spaceID {
			copied := *target
			out = append(out, &copied)
		}
	}
	return out
}

func (r *fakeTargetRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, id)
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	histories map[string]*models.QaHistory
	order     []string

	// raceOnce, when set, runs once after the next FindByID returns its
	// snapshot. Used to interleave a concurrent writer between read and CAS.
	raceOnce func()
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{histories: make(map[string]*models.QaHistory)}
}

func (r *fakeHistoryRepo) FindByID(_ context.Context, id string) (*models.QaHistory, error) {
	r.mu.Lock()
	history, ok := r.histories[id]
	var copied models.QaHistory
	if ok {
		copied = *history
	}
	hook := r.raceOnce
	r.raceOnce = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, nil
	}
	return &copied, nil
}

func (r *fakeHistoryRepo) FindByTargetID(_ context.Context, targetID string) ([]*models.QaHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.QaHistory
	// newest first: walk insertion order backwards
	for i := len(r.order) - 1; i >= 0; i-- {
		history, ok := r.histories[r.order[i]]
		if ok && history.ReviewTargetID == targetID {
			copied := *history
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) UpdateStatusCAS(_ context.Context, id string, observed, next QaStatus, outcome json.RawMessage, errorDetail *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history, ok := r.histories[id]
	if !ok {
		return false, nil
	}
	if history.Status != observed.String() {
		return false, nil
	}
	history.Status = next.String()
	history.Outcome = append(json.RawMessage(nil), outcome...)
	if len(outcome) == 0 {
		history.Outcome = nil
	}
	history.ErrorDetail = errorDetail
	return true, nil
}

func (r *fakeHistoryRepo) save(history *models.QaHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *history
	if _, exists := r.histories[history.ID]; !exists {
		r.order = append(r.order, history.ID)
	}
	r.histories[history.ID] = &copied
	return nil
}

func (r *fakeHistoryRepo) removeByTarget(targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, history := range r.histories {
		if history.ReviewTargetID == targetID {
			delete(r.histories, id)
		}
	}
}

type fakeMembership struct {
	mu      sync.Mutex
	members map[string]map[string]bool // projectID -> userID
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{members: make(map[string]map[string]bool)}
}

func (m *fakeMembership) add(projectID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[projectID] == nil {
		m.members[projectID] = make(map[string]bool)
	}
	m.members[projectID][userID] = true
}

func (m *fakeMembership) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[projectID][userID], nil
}

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []string // history ids, in order
}

func (q *fakeQueue) Enqueue(_ context.Context, historyID, _, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, historyID)
	return nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.enqueued)
}
