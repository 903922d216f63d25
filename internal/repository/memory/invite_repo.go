package memory

import (
	"context"
	"fmt"

	"gatherings/internal/domain"
)

type inviteRepository struct {
	store *Store
}

func NewInviteRepository(store *Store) domain.InviteRepository {
	return &inviteRepository{store: store}
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkInsert(inv); err != nil {
		return err
	}
	if inv.Status == "" {
		inv.Status = domain.InviteStatusPending
	}
	inv.ID = newID()
	inv.CreatedAt = s.now()
	stored := *inv
	s.invites[inv.ID] = &inviteDoc{inv: &stored, rev: s.nextRev()}
	return nil
}

func (r *inviteRepository) Restore(ctx context.Context, inv *domain.Invite) error {
	if inv.ID == "" {
		return fmt.Errorf("restore invite: missing id")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkInsert(inv); err != nil {
		return err
	}
	stored := *inv
	s.invites[inv.ID] = &inviteDoc{inv: &stored, rev: s.nextRev()}
	return nil
}

// checkInsert enforces the gathering reference and the one-record-per-pair rule.
func (s *Store) checkInsert(inv *domain.Invite) error {
	if _, ok := s.gatherings[inv.GatheringID]; !ok {
		return domain.GatheringNotFound(inv.GatheringID)
	}
	for _, d := range s.invites {
		if d.inv.GatheringID == inv.GatheringID && d.inv.ToID == inv.ToID {
			return &domain.Error{Code: domain.CodeAlreadyInvited, UserID: inv.ToID, GatheringID: inv.GatheringID}
		}
	}
	return nil
}

func (s *Store) matchingInvites(f domain.InviteFilter) []*domain.Invite {
	var docs []*inviteDoc
	for _, d := range s.invites {
		if f.Matches(d.inv) {
			docs = append(docs, d)
		}
	}
	return sortedInvites(docs)
}

func (r *inviteRepository) Find(ctx context.Context, f domain.InviteFilter) (*domain.Invite, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := s.matchingInvites(f)
	if len(found) == 0 {
		return nil, domain.InviteNotFound(f.ToID, f.GatheringID)
	}
	return found[0], nil
}

func (r *inviteRepository) List(ctx context.Context, f domain.InviteFilter) ([]*domain.Invite, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matchingInvites(f), nil
}

func (r *inviteRepository) Pop(ctx context.Context, f domain.InviteFilter) (*domain.Invite, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	found := s.matchingInvites(f)
	if len(found) == 0 {
		return nil, domain.InviteNotFound(f.ToID, f.GatheringID)
	}
	delete(s.invites, found[0].ID)
	return found[0], nil
}

func (r *inviteRepository) Count(ctx context.Context, f domain.InviteFilter) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matchingInvites(f)), nil
}
