package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpaceFixture() (*SpaceService, *fakeSpaceRepo, *fakeMembership) {
	histories := newFakeHistoryRepo()
	targets := newFakeTargetRepo(histories)
	spaces := newFakeSpaceRepo(targets, histories)
	membership := newFakeMembership()
	service := NewSpaceService(spaces, membership, zerolog.Nop())
	return service, spaces, membership
}

func strPtr(s string) *string { return &s }

func TestSpaceServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("MemberCanCreateAndReadBack", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		created, err := service.Create(ctx, "p1", "u1", "Design Review", strPtr("Q1 docs"))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		got, err := service.Get(ctx, created.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Design Review", got.Name)
		require.NotNil(t, got.Description)
		assert.Equal(t, "Q1 docs", *got.Description)
		assert.Equal(t, "p1", got.ProjectID)
	})

	t.Run("NonMemberForbidden", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		_, err := service.Create(ctx, "p1", "u2", "Design Review", nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("NameBounds", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		_, err := service.Create(ctx, "p1", "u1", "", nil)
		assert.True(t, IsValidation(err))

		_, err = service.Create(ctx, "p1", "u1", strings.Repeat("x", 101), nil)
		assert.True(t, IsValidation(err))

		_, err = service.Create(ctx, "p1", "u1", strings.Repeat("x", 100), nil)
		assert.NoError(t, err)
	})

	t.Run("DescriptionBound", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		_, err := service.Create(ctx, "p1", "u1", "docs", strPtr(strings.Repeat("d", 1001)))
		assert.True(t, IsValidation(err))

		_, err = service.Create(ctx, "p1", "u1", "docs", strPtr(strings.Repeat("d", 1000)))
		assert.NoError(t, err)
	})

	t.Run("ValidationRunsBeforeMembership", func(t *testing.T) {
		// Fail fast: malformed input is rejected without touching membership.
		service, _, _ := newSpaceFixture()

		_, err := service.Create(ctx, "p1", "nobody", "", nil)
		assert.True(t, IsValidation(err))
	})
}

func TestSpaceServiceGet(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingSpaceNotFound", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		_, err := service.Get(ctx, "no-such-space", "u1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NonMemberForbidden", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		created, err := service.Create(ctx, "p1", "u1", "Design Review", nil)
		require.NoError(t, err)

		_, err = service.Get(ctx, created.ID, "u2")
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestSpaceServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("PartialUpdateKeepsOtherFields", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		created, err := service.Create(ctx, "p1", "u1", "Design Review", strPtr("Q1 docs"))
		require.NoError(t, err)

		updated, err := service.Update(ctx, created.ID, "u1", strPtr("Renamed"), nil)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "Q1 docs", *updated.Description)
	})

	t.Run("NoFieldsRejected", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		created, err := service.Create(ctx, "p1", "u1", "Design Review", nil)
		require.NoError(t, err)

		_, err = service.Update(ctx, created.ID, "u1", nil, nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("NonMemberForbidden", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		created, err := service.Create(ctx, "p1", "u1", "Design Review", nil)
		require.NoError(t, err)

		_, err = service.Update(ctx, created.ID, "u2", strPtr("x"), nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("MissingSpaceNotFound", func(t *testing.T) {
		service, _, _ := newSpaceFixture()

		_, err := service.Update(ctx, "no-such-space", "u1", strPtr("x"), nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSpaceServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("CascadeRemovesTargetsAndHistories", func(t *testing.T) {
		histories := newFakeHistoryRepo()
		targets := newFakeTargetRepo(histories)
		spaces := newFakeSpaceRepo(targets, histories)
		membership := newFakeMembership()
		membership.add("p1", "u1")

		queue := &fakeQueue{}
		spaceService := NewSpaceService(spaces, membership, zerolog.Nop())
		targetService := NewTargetService(targets, spaces, histories, membership, queue, zerolog.Nop())

		space, err := spaceService.Create(ctx, "p1", "u1", "Design Review", nil)
		require.NoError(t, err)

		target, err := targetService.Submit(ctx, space.ID, "u1", "doc://design.pdf")
		require.NoError(t, err)

		require.NoError(t, spaceService.Delete(ctx, space.ID, "u1"))

		_, err = spaceService.Get(ctx, space.ID, "u1")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = targetService.Get(ctx, target.ID, "u1")
		assert.ErrorIs(t, err, ErrNotFound)

		trail, err := histories.FindByTargetID(ctx, target.ID)
		require.NoError(t, err)
		assert.Empty(t, trail)
	})

	t.Run("NonMemberForbidden", func(t *testing.T) {
		service, _, membership := newSpaceFixture()
		membership.add("p1", "u1")

		created, err := service.Create(ctx, "p1", "u1", "Design Review", nil)
		require.NoError(t, err)

		err = service.Delete(ctx, created.ID, "u2")
		assert.ErrorIs(t, err, ErrForbidden)

		// Nothing was deleted.
		_, err = service.Get(ctx, created.ID, "u1")
		assert.NoError(t, err)
	})
}
