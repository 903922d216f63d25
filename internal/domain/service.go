package domain

import "context"

// Access summarises how a user relates to a gathering.
// swagger:model Access
type Access struct {
	GatheringID string `json:"gathering_id"`
	UserID      string `json:"user_id"`
	Host        bool   `json:"host"`
	Invited     bool   `json:"invited"`
	Acceptor    bool   `json:"acceptor"`
	CanView     bool   `json:"can_view"`
}

// GatheringService defines the gathering membership and invitation workflow.
type GatheringService interface {
	CreateGathering(ctx context.Context, creatorID, title, description string) (*Gathering, error)
	// DeleteGathering removes a gathering with no invite history. callerID must be a host.
	DeleteGathering(ctx context.Context, gatheringID, callerID string) error
	CancelGathering(ctx context.Context, gatheringID, callerID string) (*Gathering, error)
	// UpdateGathering applies host edits; only HostEditableFields are accepted.
	UpdateGathering(ctx context.Context, gatheringID, callerID string, u GatheringUpdate) (*Gathering, error)
	AddHosts(ctx context.Context, gatheringID, callerID string, userIDs []string) (*Gathering, error)
	ListGatherings(ctx context.Context, q GatheringQuery) ([]*Gathering, error)
	GetGathering(ctx context.Context, gatheringID string) (*Gathering, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*Gathering, error)

	AddAcceptor(ctx context.Context, gatheringID, userID string) (*Gathering, error)
	RemoveAcceptor(ctx context.Context, gatheringID, userID string) (*Gathering, error)

	IsHost(ctx context.Context, userID, gatheringID string) error
	IsInvited(ctx context.Context, userID, gatheringID string) error
	IsAcceptor(ctx context.Context, userID, gatheringID string) error
	// CanView succeeds for hosts and for users holding an accepted invite.
	CanView(ctx context.Context, userID, gatheringID string) error
	Access(ctx context.Context, userID, gatheringID string) (*Access, error)

	ListInvites(ctx context.Context, f InviteFilter) ([]*Invite, error)
	Invite(ctx context.Context, fromID, toID, gatheringID string) (*Invite, error)
	AcceptInvite(ctx context.Context, toID, gatheringID string) (*Invite, error)
	DeclineInvite(ctx context.Context, toID, gatheringID string) (*Invite, error)

	AddPost(ctx context.Context, gatheringID, postID string) (*Gathering, error)
	RemovePost(ctx context.Context, gatheringID, postID string) (*Gathering, error)
}
