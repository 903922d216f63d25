package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"gatherings/internal/domain"
)

const (
	transitionInvite  = "invite"
	transitionAccept  = "accept"
	transitionDecline = "decline"
)

var (
	errInviteNotFound = &domain.Error{Code: domain.CodeInviteNotFound}
	errAcceptorExists = &domain.Error{Code: domain.CodeAcceptorAlreadyExists}
	errNotAcceptor    = &domain.Error{Code: domain.CodeNotCurrentlyAcceptor}
)

func (s *gatheringService) ListInvites(ctx context.Context, f domain.InviteFilter) ([]*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	list, err := s.inviteRepo.List(ctx, f)
	if err != nil {
		return nil, wrap("list invites", err)
	}
	if list == nil {
		list = []*domain.Invite{}
	}
	return list, nil
}

func (s *gatheringService) Invite(ctx context.Context, fromID, toID, gatheringID string) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invite(ctx, fromID, toID, gatheringID)
	s.observer.ObserveTransition(transitionInvite, err)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "invite sent", "gathering_id", gatheringID, "from_id", fromID, "to_id", toID)
	return inv, nil
}

func (s *gatheringService) invite(ctx context.Context, fromID, toID, gatheringID string) (*domain.Invite, error) {
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	if err := hostCheck(g, fromID); err != nil {
		return nil, err
	}
	if g.Canceled {
		return nil, &domain.Error{Code: domain.CodeGatheringCanceled, GatheringID: gatheringID}
	}

	var replaced *domain.Invite
	existing, err := s.inviteRepo.Find(ctx, domain.InviteFilter{GatheringID: gatheringID, ToID: toID})
	switch {
	case err == nil:
		if !s.opts.ReinviteAfterDecline || existing.Status != domain.InviteStatusDeclined {
			return nil, &domain.Error{Code: domain.CodeAlreadyInvited, UserID: toID, GatheringID: gatheringID}
		}
		replaced, err = s.inviteRepo.Pop(ctx, domain.InviteFilter{ID: existing.ID})
		if err != nil {
			if errors.Is(err, errInviteNotFound) {
				// Someone else replaced the record in the meantime.
				return nil, &domain.Error{Code: domain.CodeAlreadyInvited, UserID: toID, GatheringID: gatheringID}
			}
			return nil, wrap("pop declined invite", err)
		}
	case !errors.Is(err, errInviteNotFound):
		return nil, wrap("find invite", err)
	}

	inv := domain.NewInvite(gatheringID, fromID, toID, domain.InviteStatusPending)
	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		if replaced != nil {
			s.compensate(ctx, transitionInvite, func(ctx context.Context) error {
				return s.inviteRepo.Restore(ctx, replaced)
			})
		}
		return nil, wrap("create invite", err)
	}
	return inv, nil
}

func (s *gatheringService) AcceptInvite(ctx context.Context, toID, gatheringID string) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.acceptInvite(ctx, toID, gatheringID)
	s.observer.ObserveTransition(transitionAccept, err)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "invite accepted", "gathering_id", gatheringID, "to_id", toID)
	return inv, nil
}

// acceptInvite replaces the current record with an accepted one and adds the invitee to the
// acceptors. Both writes run concurrently and each runs to completion; if either fails the
// other is undone and the popped record is put back.
func (s *gatheringService) acceptInvite(ctx context.Context, toID, gatheringID string) (*domain.Invite, error) {
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	if g.Canceled {
		return nil, &domain.Error{Code: domain.CodeGatheringCanceled, GatheringID: gatheringID}
	}
	current, err := s.inviteRepo.Find(ctx, domain.InviteFilter{GatheringID: gatheringID, ToID: toID})
	if err != nil {
		return nil, wrap("find invite", err)
	}
	if current.Status == domain.InviteStatusAccepted {
		return nil, &domain.Error{Code: domain.CodeAlreadyAccepted, UserID: toID, GatheringID: gatheringID}
	}

	popped, err := s.inviteRepo.Pop(ctx, domain.InviteFilter{ID: current.ID})
	if err != nil {
		return nil, s.popFailed(ctx, toID, gatheringID, err)
	}

	next := domain.NewInvite(gatheringID, popped.FromID, toID, domain.InviteStatusAccepted)
	wasAcceptor := false
	var eg errgroup.Group
	eg.Go(func() error {
		return s.inviteRepo.Create(ctx, next)
	})
	eg.Go(func() error {
		_, err := s.addMember(ctx, gatheringID, domain.FieldAcceptors, toID)
		if errors.Is(err, errAcceptorExists) {
			wasAcceptor = true
			return nil
		}
		return err
	})
	if err := eg.Wait(); err != nil {
		s.compensate(ctx, transitionAccept, func(ctx context.Context) error {
			var errs []error
			// A write that failed late may still have committed, so both are undone by content.
			if err := s.dropAccepted(ctx, next); err != nil {
				errs = append(errs, err)
			}
			if err := s.inviteRepo.Restore(ctx, popped); err != nil {
				errs = append(errs, err)
			}
			if !wasAcceptor {
				if _, err := s.removeMember(ctx, gatheringID, domain.FieldAcceptors, toID); err != nil && !errors.Is(err, errNotAcceptor) {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
		return nil, wrap("accept invite", err)
	}
	return next, nil
}

// dropAccepted removes the accepted record written for next, if it exists. Without a
// scanned ID it is located by gathering and invitee.
func (s *gatheringService) dropAccepted(ctx context.Context, next *domain.Invite) error {
	f := domain.InviteFilter{ID: next.ID}
	if next.ID == "" {
		f = domain.InviteFilter{GatheringID: next.GatheringID, ToID: next.ToID, Status: domain.InviteStatusAccepted}
	}
	_, err := s.inviteRepo.Pop(ctx, f)
	if err != nil && !errors.Is(err, errInviteNotFound) {
		return err
	}
	return nil
}

// popFailed reports a failed Pop of the invitee's current record. Losing the record to a
// concurrent accept or decline surfaces as that transition's conflict.
func (s *gatheringService) popFailed(ctx context.Context, toID, gatheringID string, err error) error {
	if !errors.Is(err, errInviteNotFound) {
		return wrap("pop invite", err)
	}
	latest, findErr := s.inviteRepo.Find(ctx, domain.InviteFilter{GatheringID: gatheringID, ToID: toID})
	if findErr != nil {
		return wrap("pop invite", err)
	}
	switch latest.Status {
	case domain.InviteStatusAccepted:
		return &domain.Error{Code: domain.CodeAlreadyAccepted, UserID: toID, GatheringID: gatheringID}
	case domain.InviteStatusDeclined:
		return &domain.Error{Code: domain.CodeAlreadyDeclined, UserID: toID, GatheringID: gatheringID}
	}
	return wrap("pop invite", err)
}

func (s *gatheringService) DeclineInvite(ctx context.Context, toID, gatheringID string) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.declineInvite(ctx, toID, gatheringID)
	s.observer.ObserveTransition(transitionDecline, err)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "invite declined", "gathering_id", gatheringID, "to_id", toID)
	return inv, nil
}

// declineInvite removes an accepted invitee from the acceptors first, then replaces the
// record with a declined one. A failed replacement restores the acceptor.
func (s *gatheringService) declineInvite(ctx context.Context, toID, gatheringID string) (*domain.Invite, error) {
	if _, err := s.getGathering(ctx, gatheringID); err != nil {
		return nil, err
	}
	current, err := s.inviteRepo.Find(ctx, domain.InviteFilter{GatheringID: gatheringID, ToID: toID})
	if err != nil {
		return nil, wrap("find invite", err)
	}
	if current.Status == domain.InviteStatusDeclined {
		return nil, &domain.Error{Code: domain.CodeAlreadyDeclined, UserID: toID, GatheringID: gatheringID}
	}

	acceptorRemoved := false
	if current.Status == domain.InviteStatusAccepted {
		_, err := s.removeMember(ctx, gatheringID, domain.FieldAcceptors, toID)
		switch {
		case err == nil:
			acceptorRemoved = true
		case errors.Is(err, errNotAcceptor):
			// already out of the set
		default:
			return nil, wrap("remove acceptor", err)
		}
	}
	undoAcceptor := func(ctx context.Context) error {
		if !acceptorRemoved {
			return nil
		}
		_, err := s.addMember(ctx, gatheringID, domain.FieldAcceptors, toID)
		return err
	}

	popped, err := s.inviteRepo.Pop(ctx, domain.InviteFilter{ID: current.ID})
	if err != nil {
		s.compensate(ctx, transitionDecline, undoAcceptor)
		return nil, s.popFailed(ctx, toID, gatheringID, err)
	}
	next := domain.NewInvite(gatheringID, popped.FromID, toID, domain.InviteStatusDeclined)
	if err := s.inviteRepo.Create(ctx, next); err != nil {
		s.compensate(ctx, transitionDecline, func(ctx context.Context) error {
			return errors.Join(s.inviteRepo.Restore(ctx, popped), undoAcceptor(ctx))
		})
		return nil, wrap("create declined invite", err)
	}
	return next, nil
}

// compensate runs undo on a context detached from the caller's cancellation so a timed out
// request still rolls back its partial writes.
func (s *gatheringService) compensate(ctx context.Context, transition string, undo func(ctx context.Context) error) {
	s.observer.ObserveCompensation(transition)
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()
	if err := undo(cctx); err != nil {
		s.logger.ErrorContext(ctx, "compensation failed", "transition", transition, "err", err)
		return
	}
	s.logger.WarnContext(ctx, "transition rolled back", "transition", transition)
}
