package services

import (
	"context"
	"slices"

	"gatherings/internal/domain"
)

func hostCheck(g *domain.Gathering, userID string) error {
	if !slices.Contains(g.Hosts, userID) {
		return &domain.Error{Code: domain.CodeNotHost, UserID: userID, GatheringID: g.ID}
	}
	return nil
}

func (s *gatheringService) IsHost(ctx context.Context, userID, gatheringID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return err
	}
	return hostCheck(g, userID)
}

func (s *gatheringService) IsInvited(ctx context.Context, userID, gatheringID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.isInvited(ctx, userID, gatheringID)
}

// isInvited succeeds when a record of any status exists for the pair.
func (s *gatheringService) isInvited(ctx context.Context, userID, gatheringID string) error {
	n, err := s.inviteRepo.Count(ctx, domain.InviteFilter{GatheringID: gatheringID, ToID: userID})
	if err != nil {
		return wrap("count invites", err)
	}
	if n == 0 {
		return &domain.Error{Code: domain.CodeNotInvited, UserID: userID, GatheringID: gatheringID}
	}
	return nil
}

func (s *gatheringService) IsAcceptor(ctx context.Context, userID, gatheringID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.isAcceptor(ctx, userID, gatheringID)
}

func (s *gatheringService) isAcceptor(ctx context.Context, userID, gatheringID string) error {
	if err := s.isInvited(ctx, userID, gatheringID); err != nil {
		return err
	}
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return err
	}
	if !slices.Contains(g.Acceptors, userID) {
		return &domain.Error{Code: domain.CodePendingInvite, UserID: userID, GatheringID: gatheringID}
	}
	return nil
}

func (s *gatheringService) CanView(ctx context.Context, userID, gatheringID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return err
	}
	if hostCheck(g, userID) == nil {
		return nil
	}
	return s.isAcceptor(ctx, userID, gatheringID)
}

func (s *gatheringService) Access(ctx context.Context, userID, gatheringID string) (*domain.Access, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	n, err := s.inviteRepo.Count(ctx, domain.InviteFilter{GatheringID: gatheringID, ToID: userID})
	if err != nil {
		return nil, wrap("count invites", err)
	}
	a := &domain.Access{
		GatheringID: gatheringID,
		UserID:      userID,
		Host:        slices.Contains(g.Hosts, userID),
		Invited:     n > 0,
	}
	a.Acceptor = a.Invited && slices.Contains(g.Acceptors, userID)
	a.CanView = a.Host || a.Acceptor
	return a, nil
}
