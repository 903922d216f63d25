package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gatherings/internal/domain"
)

func newRepos() (domain.GatheringRepository, domain.InviteRepository) {
	store := NewStore()
	return NewGatheringRepository(store), NewInviteRepository(store)
}

func TestGatheringRepository_Create(t *testing.T) {
	ctx := context.Background()
	gatherings, _ := newRepos()

	g := domain.NewGathering("alice", "Picnic", "")
	g.Hosts = nil
	require.NoError(t, gatherings.Create(ctx, g))
	require.NotEmpty(t, g.ID)
	require.Equal(t, []string{"alice"}, g.Hosts)
	require.False(t, g.CreatedAt.IsZero())

	err := gatherings.Create(ctx, domain.NewGathering("alice", "Picnic", "again"))
	require.ErrorIs(t, err, domain.ErrNameConflict)

	require.NoError(t, gatherings.Create(ctx, domain.NewGathering("bob", "Picnic", "")))

	// Returned values are copies.
	got, err := gatherings.GetByID(ctx, g.ID)
	require.NoError(t, err)
	got.Hosts[0] = "mallory"
	again, err := gatherings.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, again.Hosts)
}

func TestGatheringRepository_Update(t *testing.T) {
	ctx := context.Background()
	gatherings, _ := newRepos()
	g := domain.NewGathering("alice", "Picnic", "")
	require.NoError(t, gatherings.Create(ctx, g))
	require.NoError(t, gatherings.Create(ctx, domain.NewGathering("alice", "Hike", "")))

	hosts := []string{"bob"}
	_, err := gatherings.Update(ctx, g.ID, domain.GatheringUpdate{Hosts: &hosts})
	derr, ok := domain.AsError(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeFieldNotAllowed, derr.Code)
	require.Equal(t, "hosts", derr.Field)

	title := "Hike"
	_, err = gatherings.Update(ctx, g.ID, domain.GatheringUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrNameConflict)

	title = "Picnic"
	canceled := true
	acceptors := []string{"carol"}
	updated, err := gatherings.Update(ctx, g.ID, domain.GatheringUpdate{Title: &title, Canceled: &canceled, Acceptors: &acceptors})
	require.NoError(t, err)
	require.True(t, updated.Canceled)
	require.Equal(t, acceptors, updated.Acceptors)
	require.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = gatherings.Update(ctx, "missing", domain.GatheringUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGatheringRepository_Sets(t *testing.T) {
	ctx := context.Background()
	gatherings, _ := newRepos()
	g := domain.NewGathering("alice", "Picnic", "")
	require.NoError(t, gatherings.Create(ctx, g))

	updated, err := gatherings.AddToSet(ctx, g.ID, domain.FieldHosts, "bob", "carol")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "carol"}, updated.Hosts)

	_, err = gatherings.AddToSet(ctx, g.ID, domain.FieldHosts, "dave", "bob")
	require.ErrorIs(t, err, &domain.Error{Code: domain.CodeHostAlreadyExists})

	_, err = gatherings.RemoveFromSet(ctx, g.ID, domain.FieldHosts, "alice")
	require.ErrorIs(t, err, &domain.Error{Code: domain.CodeHostNotFound})

	updated, err = gatherings.RemoveFromSet(ctx, g.ID, domain.FieldHosts, "bob")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "carol"}, updated.Hosts)

	_, err = gatherings.RemoveFromSet(ctx, g.ID, domain.FieldPosts, "p-1")
	require.ErrorIs(t, err, &domain.Error{Code: domain.CodePostNotFound})

	_, err = gatherings.AddToSet(ctx, g.ID, domain.FieldTitle, "x")
	require.ErrorIs(t, err, domain.ErrNotAllowed)
}

func TestGatheringRepository_QueryOrder(t *testing.T) {
	ctx := context.Background()
	gatherings, _ := newRepos()
	first := domain.NewGathering("alice", "One", "")
	second := domain.NewGathering("alice", "Two", "")
	require.NoError(t, gatherings.Create(ctx, first))
	require.NoError(t, gatherings.Create(ctx, second))

	list, err := gatherings.ListByCreator(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{second.ID, first.ID}, []string{list[0].ID, list[1].ID})

	_, err = gatherings.AddToSet(ctx, first.ID, domain.FieldPosts, "p-1")
	require.NoError(t, err)
	list, err = gatherings.Query(ctx, domain.GatheringQuery{CreatorID: "alice"})
	require.NoError(t, err)
	require.Equal(t, first.ID, list[0].ID)

	list, err = gatherings.Query(ctx, domain.GatheringQuery{IDs: []string{second.ID}})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestGatheringRepository_DeleteGate(t *testing.T) {
	ctx := context.Background()
	gatherings, invites := newRepos()
	g := domain.NewGathering("alice", "Picnic", "")
	require.NoError(t, gatherings.Create(ctx, g))
	require.NoError(t, invites.Create(ctx, domain.NewInvite(g.ID, "alice", "bob", "")))

	require.ErrorIs(t, gatherings.Delete(ctx, g.ID), domain.ErrIntegrity)

	_, err := invites.Pop(ctx, domain.InviteFilter{GatheringID: g.ID, ToID: "bob"})
	require.NoError(t, err)
	require.NoError(t, gatherings.Delete(ctx, g.ID))
	require.ErrorIs(t, gatherings.Delete(ctx, g.ID), domain.ErrNotFound)
}

func TestInviteRepository(t *testing.T) {
	ctx := context.Background()
	gatherings, invites := newRepos()
	g := domain.NewGathering("alice", "Picnic", "")
	require.NoError(t, gatherings.Create(ctx, g))

	inv := domain.NewInvite(g.ID, "alice", "bob", "")
	require.NoError(t, invites.Create(ctx, inv))
	require.Equal(t, domain.InviteStatusPending, inv.Status)
	require.NotEmpty(t, inv.ID)

	err := invites.Create(ctx, domain.NewInvite(g.ID, "alice", "bob", domain.InviteStatusPending))
	require.ErrorIs(t, err, &domain.Error{Code: domain.CodeAlreadyInvited})

	err = invites.Create(ctx, domain.NewInvite("missing", "alice", "bob", domain.InviteStatusPending))
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, invites.Create(ctx, domain.NewInvite(g.ID, "alice", "carol", domain.InviteStatusPending)))

	n, err := invites.Count(ctx, domain.InviteFilter{GatheringID: g.ID})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	found, err := invites.Find(ctx, domain.InviteFilter{ToID: "bob"})
	require.NoError(t, err)
	require.Equal(t, inv.ID, found.ID)

	popped, err := invites.Pop(ctx, domain.InviteFilter{ID: inv.ID})
	require.NoError(t, err)
	require.Equal(t, *inv, *popped)

	_, err = invites.Pop(ctx, domain.InviteFilter{ID: inv.ID})
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = invites.Find(ctx, domain.InviteFilter{GatheringID: g.ID, ToID: "bob"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, invites.Restore(ctx, popped))
	restored, err := invites.Find(ctx, domain.InviteFilter{GatheringID: g.ID, ToID: "bob"})
	require.NoError(t, err)
	require.Equal(t, *popped, *restored)
	require.Error(t, invites.Restore(ctx, popped))

	list, err := invites.List(ctx, domain.InviteFilter{Status: domain.InviteStatusPending})
	require.NoError(t, err)
	require.Len(t, list, 2)
}
