package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"gatherings/internal/domain"
)

// Observer records workflow outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveTransition(transition string, err error)
	ObserveCompensation(transition string)
	ObserveOperation(operation string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveTransition(string, error) {}
func (nopObserver) ObserveCompensation(string)     {}
func (nopObserver) ObserveOperation(string, error) {}

// Options tunes the membership policies of the gathering service.
type Options struct {
	Strictness domain.MembershipStrictness
	// ReinviteAfterDecline lets Invite replace a declined record with a new pending one.
	ReinviteAfterDecline bool
}

type gatheringService struct {
	gatheringRepo  domain.GatheringRepository
	inviteRepo     domain.InviteRepository
	opts           Options
	observer       Observer
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewGatheringService(gatheringRepo domain.GatheringRepository,
	inviteRepo domain.InviteRepository,
	opts Options,
	observer Observer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.GatheringService {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Strictness == "" {
		opts.Strictness = domain.StrictnessLenient
	}
	return &gatheringService{
		gatheringRepo:  gatheringRepo,
		inviteRepo:     inviteRepo,
		opts:           opts,
		observer:       observer,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// wrap passes domain errors through and annotates infrastructure failures.
func wrap(op string, err error) error {
	if _, ok := domain.AsError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *gatheringService) CreateGathering(ctx context.Context, creatorID, title, description string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if creatorID == "" {
		return nil, &domain.Error{Code: domain.CodeFieldRequired, Field: string(domain.FieldCreator)}
	}
	if strings.TrimSpace(title) == "" {
		return nil, &domain.Error{Code: domain.CodeFieldRequired, Field: string(domain.FieldTitle)}
	}
	g := domain.NewGathering(creatorID, title, description)
	err := s.gatheringRepo.Create(ctx, g)
	s.observer.ObserveOperation("create", err)
	if err != nil {
		return nil, wrap("create gathering", err)
	}
	return g, nil
}

func (s *gatheringService) DeleteGathering(ctx context.Context, gatheringID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.deleteGathering(ctx, gatheringID, callerID)
	s.observer.ObserveOperation("delete", err)
	return err
}

func (s *gatheringService) deleteGathering(ctx context.Context, gatheringID, callerID string) error {
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return err
	}
	if err := hostCheck(g, callerID); err != nil {
		return err
	}
	if err := s.gatheringRepo.Delete(ctx, gatheringID); err != nil {
		return wrap("delete gathering", err)
	}
	return nil
}

func (s *gatheringService) CancelGathering(ctx context.Context, gatheringID, callerID string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.cancelGathering(ctx, gatheringID, callerID)
	s.observer.ObserveOperation("cancel", err)
	return g, err
}

func (s *gatheringService) cancelGathering(ctx context.Context, gatheringID, callerID string) (*domain.Gathering, error) {
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	if err := hostCheck(g, callerID); err != nil {
		return nil, err
	}
	if g.Canceled {
		return nil, &domain.Error{Code: domain.CodeAlreadyCanceled, GatheringID: gatheringID}
	}
	canceled := true
	updated, err := s.gatheringRepo.Update(ctx, gatheringID, domain.GatheringUpdate{Canceled: &canceled})
	if err != nil {
		return nil, wrap("cancel gathering", err)
	}
	return updated, nil
}

func (s *gatheringService) UpdateGathering(ctx context.Context, gatheringID, callerID string, u domain.GatheringUpdate) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.updateGathering(ctx, gatheringID, callerID, u)
	s.observer.ObserveOperation("update", err)
	return g, err
}

func (s *gatheringService) updateGathering(ctx context.Context, gatheringID, callerID string, u domain.GatheringUpdate) (*domain.Gathering, error) {
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	if err := hostCheck(g, callerID); err != nil {
		return nil, err
	}
	if err := u.CheckAllowed(domain.HostEditableFields); err != nil {
		return nil, err
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, &domain.Error{Code: domain.CodeFieldRequired, Field: string(domain.FieldTitle)}
	}
	if u.Empty() {
		return g, nil
	}
	updated, err := s.gatheringRepo.Update(ctx, gatheringID, u)
	if err != nil {
		return nil, wrap("update gathering", err)
	}
	return updated, nil
}

func (s *gatheringService) AddHosts(ctx context.Context, gatheringID, callerID string, userIDs []string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.addHosts(ctx, gatheringID, callerID, userIDs)
	s.observer.ObserveOperation("add_hosts", err)
	return g, err
}

func (s *gatheringService) addHosts(ctx context.Context, gatheringID, callerID string, userIDs []string) (*domain.Gathering, error) {
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	if err := hostCheck(g, callerID); err != nil {
		return nil, err
	}
	ids := domain.WithMembers(nil, slices.DeleteFunc(slices.Clone(userIDs), func(id string) bool { return id == "" })...)
	if len(ids) == 0 {
		return g, nil
	}
	if v, found := domain.FirstMember(g.Hosts, ids...); found {
		return nil, domain.AlreadyMember(gatheringID, domain.FieldHosts, v)
	}
	// Hosts always take the conditional path; the allow-list keeps them out of Update.
	updated, err := s.gatheringRepo.AddToSet(ctx, gatheringID, domain.FieldHosts, ids...)
	if err != nil {
		return nil, wrap("add hosts", err)
	}
	return updated, nil
}

func (s *gatheringService) ListGatherings(ctx context.Context, q domain.GatheringQuery) ([]*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	list, err := s.gatheringRepo.Query(ctx, q)
	if err != nil {
		return nil, wrap("list gatherings", err)
	}
	if list == nil {
		list = []*domain.Gathering{}
	}
	return list, nil
}

func (s *gatheringService) GetGathering(ctx context.Context, gatheringID string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.getGathering(ctx, gatheringID)
}

func (s *gatheringService) getGathering(ctx context.Context, gatheringID string) (*domain.Gathering, error) {
	g, err := s.gatheringRepo.GetByID(ctx, gatheringID)
	if err != nil {
		return nil, wrap("get gathering", err)
	}
	return g, nil
}

func (s *gatheringService) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	list, err := s.gatheringRepo.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, wrap("list gatherings by creator", err)
	}
	if list == nil {
		list = []*domain.Gathering{}
	}
	return list, nil
}

func (s *gatheringService) AddAcceptor(ctx context.Context, gatheringID, userID string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.addMember(ctx, gatheringID, domain.FieldAcceptors, userID)
}

func (s *gatheringService) RemoveAcceptor(ctx context.Context, gatheringID, userID string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.removeMember(ctx, gatheringID, domain.FieldAcceptors, userID)
}

func (s *gatheringService) AddPost(ctx context.Context, gatheringID, postID string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.addMember(ctx, gatheringID, domain.FieldPosts, postID)
	s.observer.ObserveOperation("add_post", err)
	return g, err
}

func (s *gatheringService) RemovePost(ctx context.Context, gatheringID, postID string) (*domain.Gathering, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.removeMember(ctx, gatheringID, domain.FieldPosts, postID)
	s.observer.ObserveOperation("remove_post", err)
	return g, err
}

// addMember adds value to the acceptors or posts set. Strict mode delegates the membership
// test to the store; lenient mode checks the loaded set and writes the whole union back.
func (s *gatheringService) addMember(ctx context.Context, gatheringID string, field domain.GatheringField, value string) (*domain.Gathering, error) {
	if s.opts.Strictness == domain.StrictnessStrict {
		g, err := s.gatheringRepo.AddToSet(ctx, gatheringID, field, value)
		if err != nil {
			return nil, wrap("add "+string(field), err)
		}
		return g, nil
	}
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(g.Set(field), value) {
		return nil, domain.AlreadyMember(gatheringID, field, value)
	}
	updated, err := s.gatheringRepo.Update(ctx, gatheringID, setUpdate(field, domain.WithMembers(g.Set(field), value)))
	if err != nil {
		return nil, wrap("add "+string(field), err)
	}
	return updated, nil
}

func (s *gatheringService) removeMember(ctx context.Context, gatheringID string, field domain.GatheringField, value string) (*domain.Gathering, error) {
	if s.opts.Strictness == domain.StrictnessStrict {
		g, err := s.gatheringRepo.RemoveFromSet(ctx, gatheringID, field, value)
		if err != nil {
			return nil, wrap("remove "+string(field), err)
		}
		return g, nil
	}
	g, err := s.getGathering(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(g.Set(field), value) {
		return nil, domain.NotMember(gatheringID, field, value)
	}
	updated, err := s.gatheringRepo.Update(ctx, gatheringID, setUpdate(field, domain.WithoutMember(g.Set(field), value)))
	if err != nil {
		return nil, wrap("remove "+string(field), err)
	}
	return updated, nil
}

func setUpdate(field domain.GatheringField, members []string) domain.GatheringUpdate {
	switch field {
	case domain.FieldAcceptors:
		return domain.GatheringUpdate{Acceptors: &members}
	case domain.FieldPosts:
		return domain.GatheringUpdate{Posts: &members}
	}
	return domain.GatheringUpdate{Hosts: &members}
}
