package memory

import (
	"context"
	"slices"

	"gatherings/internal/domain"
)

type gatheringRepository struct {
	store *Store
}

func NewGatheringRepository(store *Store) domain.GatheringRepository {
	return &gatheringRepository{store: store}
}

func (r *gatheringRepository) Create(ctx context.Context, g *domain.Gathering) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titleTaken(g.CreatorID, g.Title, "") {
		return &domain.Error{Code: domain.CodeNameConflict, UserID: g.CreatorID, Title: g.Title}
	}
	now := s.now()
	g.ID = newID()
	g.Hosts = domain.WithMembers([]string{g.CreatorID}, g.Hosts...)
	if g.Acceptors == nil {
		g.Acceptors = []string{}
	}
	if g.Posts == nil {
		g.Posts = []string{}
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	s.gatherings[g.ID] = &gatheringDoc{g: g.Clone(), rev: s.nextRev()}
	return nil
}

// titleTaken reports whether creatorID owns a gathering titled title other than exceptID.
func (s *Store) titleTaken(creatorID, title, exceptID string) bool {
	for id, d := range s.gatherings {
		if id != exceptID && d.g.CreatorID == creatorID && d.g.Title == title {
			return true
		}
	}
	return false
}

func (r *gatheringRepository) GetByID(ctx context.Context, id string) (*domain.Gathering, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.gatherings[id]
	if !ok {
		return nil, domain.GatheringNotFound(id)
	}
	return d.g.Clone(), nil
}

func (r *gatheringRepository) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Gathering, error) {
	return r.Query(ctx, domain.GatheringQuery{CreatorID: creatorID})
}

func (r *gatheringRepository) Query(ctx context.Context, q domain.GatheringQuery) ([]*domain.Gathering, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []*gatheringDoc
	for _, d := range s.gatherings {
		if q.Matches(d.g) {
			docs = append(docs, d)
		}
	}
	return sortedGatherings(docs), nil
}

func (r *gatheringRepository) Update(ctx context.Context, id string, u domain.GatheringUpdate) (*domain.Gathering, error) {
	if err := u.CheckAllowed(domain.UpdatableFields); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.gatherings[id]
	if !ok {
		return nil, domain.GatheringNotFound(id)
	}
	if u.Empty() {
		return d.g.Clone(), nil
	}
	if u.Title != nil && s.titleTaken(d.g.CreatorID, *u.Title, id) {
		return nil, &domain.Error{Code: domain.CodeNameConflict, UserID: d.g.CreatorID, Title: *u.Title}
	}
	u.Apply(d.g)
	s.touch(d)
	return d.g.Clone(), nil
}

func (r *gatheringRepository) AddToSet(ctx context.Context, id string, field domain.GatheringField, values ...string) (*domain.Gathering, error) {
	if !slices.Contains(domain.SetFields, field) {
		return nil, &domain.Error{Code: domain.CodeFieldNotAllowed, Field: string(field)}
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.gatherings[id]
	if !ok {
		return nil, domain.GatheringNotFound(id)
	}
	if v, found := domain.FirstMember(d.g.Set(field), values...); found {
		return nil, domain.AlreadyMember(id, field, v)
	}
	setMembers(d.g, field, domain.WithMembers(d.g.Set(field), values...))
	s.touch(d)
	return d.g.Clone(), nil
}

func (r *gatheringRepository) RemoveFromSet(ctx context.Context, id string, field domain.GatheringField, value string) (*domain.Gathering, error) {
	if !slices.Contains(domain.SetFields, field) {
		return nil, &domain.Error{Code: domain.CodeFieldNotAllowed, Field: string(field)}
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.gatherings[id]
	if !ok {
		return nil, domain.GatheringNotFound(id)
	}
	if !slices.Contains(d.g.Set(field), value) || (field == domain.FieldHosts && value == d.g.CreatorID) {
		return nil, domain.NotMember(id, field, value)
	}
	setMembers(d.g, field, domain.WithoutMember(d.g.Set(field), value))
	s.touch(d)
	return d.g.Clone(), nil
}

func (r *gatheringRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gatherings[id]; !ok {
		return domain.GatheringNotFound(id)
	}
	for _, d := range s.invites {
		if d.inv.GatheringID == id {
			return &domain.Error{Code: domain.CodeGatheringHasInvites, GatheringID: id}
		}
	}
	delete(s.gatherings, id)
	return nil
}

func (s *Store) touch(d *gatheringDoc) {
	d.g.UpdatedAt = s.now()
	d.rev = s.nextRev()
}

func setMembers(g *domain.Gathering, field domain.GatheringField, members []string) {
	switch field {
	case domain.FieldHosts:
		g.Hosts = members
	case domain.FieldAcceptors:
		g.Acceptors = members
	case domain.FieldPosts:
		g.Posts = members
	}
}
