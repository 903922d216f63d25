package domain

import (
	"context"
	"time"
)

// InviteStatus is the state of a single invite record.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// Valid reports whether s is a known status.
func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined:
		return true
	}
	return false
}

// Invite records one invitation of a user to a gathering. A status change replaces the
// record instead of mutating it.
// swagger:model Invite
type Invite struct {
	ID          string       `json:"id"`
	GatheringID string       `json:"gathering_id"`
	FromID      string       `json:"from_id"`
	ToID        string       `json:"to_id"`
	Status      InviteStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewInvite returns an invite with the given status. ID and CreatedAt are set by the repository on create.
func NewInvite(gatheringID, fromID, toID string, status InviteStatus) *Invite {
	return &Invite{
		GatheringID: gatheringID,
		FromID:      fromID,
		ToID:        toID,
		Status:      status,
	}
}

// InviteFilter narrows invite lookups. Zero-valued fields do not filter.
type InviteFilter struct {
	ID          string
	GatheringID string
	FromID      string
	ToID        string
	Status      InviteStatus
}

// Matches reports whether inv satisfies every set criterion of f.
func (f InviteFilter) Matches(inv *Invite) bool {
	if f.ID != "" && inv.ID != f.ID {
		return false
	}
	if f.GatheringID != "" && inv.GatheringID != f.GatheringID {
		return false
	}
	if f.FromID != "" && inv.FromID != f.FromID {
		return false
	}
	if f.ToID != "" && inv.ToID != f.ToID {
		return false
	}
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	return true
}

// InviteRepository defines storage operations for invites.
type InviteRepository interface {
	// Create stores inv, defaulting its status to pending. Fails with already_invited when
	// a record for (gathering, to) already exists.
	Create(ctx context.Context, inv *Invite) error
	// Restore re-inserts a previously popped record with its original ID and CreatedAt.
	Restore(ctx context.Context, inv *Invite) error
	// Find returns the newest matching invite or invite_not_found.
	Find(ctx context.Context, f InviteFilter) (*Invite, error)
	// List returns matching invites, newest first.
	List(ctx context.Context, f InviteFilter) ([]*Invite, error)
	// Pop atomically reads and deletes the newest matching invite.
	Pop(ctx context.Context, f InviteFilter) (*Invite, error)
	Count(ctx context.Context, f InviteFilter) (int, error)
}
