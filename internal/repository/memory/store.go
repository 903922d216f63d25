// Package memory implements the gathering and invite repositories in process memory.
// Every repository call is atomic with respect to the others sharing the same Store, which
// mirrors the single-statement atomicity of the postgres repositories.
package memory

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatherings/internal/domain"
)

// Store holds the gathering and invite collections.
type Store struct {
	mu         sync.RWMutex
	gatherings map[string]*gatheringDoc
	invites    map[string]*inviteDoc
	rev        uint64
	now        func() time.Time
}

type gatheringDoc struct {
	g   *domain.Gathering
	rev uint64
}

type inviteDoc struct {
	inv *domain.Invite
	rev uint64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		gatherings: make(map[string]*gatheringDoc),
		invites:    make(map[string]*inviteDoc),
		now:        time.Now,
	}
}

func (s *Store) nextRev() uint64 {
	s.rev++
	return s.rev
}

func newID() string {
	return uuid.NewString()
}

// sortedGatherings returns clones of docs ordered by most recent write first.
func sortedGatherings(docs []*gatheringDoc) []*domain.Gathering {
	slices.SortFunc(docs, func(a, b *gatheringDoc) int {
		return cmp.Compare(b.rev, a.rev)
	})
	out := make([]*domain.Gathering, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.g.Clone())
	}
	return out
}

// sortedInvites returns copies of docs ordered newest first.
func sortedInvites(docs []*inviteDoc) []*domain.Invite {
	slices.SortFunc(docs, func(a, b *inviteDoc) int {
		if c := b.inv.CreatedAt.Compare(a.inv.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.rev, a.rev)
	})
	out := make([]*domain.Invite, 0, len(docs))
	for _, d := range docs {
		inv := *d.inv
		out = append(out, &inv)
	}
	return out
}
