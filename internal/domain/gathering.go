package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Gathering is an event owned by its creator and managed by its hosts.
// swagger:model Gathering
type Gathering struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creator_id"`
	Hosts       []string  `json:"hosts"`
	Canceled    bool      `json:"canceled"`
	Acceptors   []string  `json:"acceptors"`
	Posts       []string  `json:"posts"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewGathering returns a new Gathering with hosts seeded to {creator}. ID and timestamps are set by the repository on create.
func NewGathering(creatorID, title, description string) *Gathering {
	return &Gathering{
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		Hosts:       []string{creatorID},
		Acceptors:   []string{},
		Posts:       []string{},
	}
}

// Clone returns a deep copy of g.
func (g *Gathering) Clone() *Gathering {
	c := *g
	c.Hosts = slices.Clone(g.Hosts)
	c.Acceptors = slices.Clone(g.Acceptors)
	c.Posts = slices.Clone(g.Posts)
	return &c
}

// Set returns the member set named by field.
func (g *Gathering) Set(field GatheringField) []string {
	switch field {
	case FieldHosts:
		return g.Hosts
	case FieldAcceptors:
		return g.Acceptors
	case FieldPosts:
		return g.Posts
	}
	return nil
}

// GatheringField names a stored attribute of a gathering.
type GatheringField string

const (
	FieldTitle       GatheringField = "title"
	FieldDescription GatheringField = "description"
	FieldCreator     GatheringField = "creator_id"
	FieldHosts       GatheringField = "hosts"
	FieldCanceled    GatheringField = "canceled"
	FieldAcceptors   GatheringField = "acceptors"
	FieldPosts       GatheringField = "posts"
)

// UpdatableFields is the allow-list enforced by GatheringRepository.Update.
var UpdatableFields = []GatheringField{FieldTitle, FieldDescription, FieldCanceled, FieldAcceptors, FieldPosts}

// HostEditableFields are the fields a host may change directly; the rest move only through
// cancel, the invite workflow and post attachment.
var HostEditableFields = []GatheringField{FieldTitle, FieldDescription}

// SetFields are the member-set attributes that support AddToSet and RemoveFromSet.
var SetFields = []GatheringField{FieldHosts, FieldAcceptors, FieldPosts}

// GatheringUpdate is a typed partial update. Nil fields are left unchanged.
type GatheringUpdate struct {
	Title       *string
	Description *string
	CreatorID   *string
	Hosts       *[]string
	Canceled    *bool
	Acceptors   *[]string
	Posts       *[]string
}

// Fields lists the fields present in u.
func (u GatheringUpdate) Fields() []GatheringField {
	var fields []GatheringField
	if u.Title != nil {
		fields = append(fields, FieldTitle)
	}
	if u.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if u.CreatorID != nil {
		fields = append(fields, FieldCreator)
	}
	if u.Hosts != nil {
		fields = append(fields, FieldHosts)
	}
	if u.Canceled != nil {
		fields = append(fields, FieldCanceled)
	}
	if u.Acceptors != nil {
		fields = append(fields, FieldAcceptors)
	}
	if u.Posts != nil {
		fields = append(fields, FieldPosts)
	}
	return fields
}

// Empty reports whether u changes nothing.
func (u GatheringUpdate) Empty() bool {
	return len(u.Fields()) == 0
}

// CheckAllowed fails with a field_not_allowed error naming the first present field outside allowed.
func (u GatheringUpdate) CheckAllowed(allowed []GatheringField) error {
	for _, f := range u.Fields() {
		if !slices.Contains(allowed, f) {
			return &Error{Code: CodeFieldNotAllowed, Field: string(f)}
		}
	}
	return nil
}

// Apply writes the present fields of u onto g.
func (u GatheringUpdate) Apply(g *Gathering) {
	if u.Title != nil {
		g.Title = *u.Title
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.CreatorID != nil {
		g.CreatorID = *u.CreatorID
	}
	if u.Hosts != nil {
		g.Hosts = slices.Clone(*u.Hosts)
	}
	if u.Canceled != nil {
		g.Canceled = *u.Canceled
	}
	if u.Acceptors != nil {
		g.Acceptors = slices.Clone(*u.Acceptors)
	}
	if u.Posts != nil {
		g.Posts = slices.Clone(*u.Posts)
	}
}

// GatheringQuery narrows gathering listings. Zero-valued fields do not filter.
type GatheringQuery struct {
	IDs        []string
	CreatorID  string
	Title      string
	HostID     string
	AcceptorID string
	Canceled   *bool
}

// Matches reports whether g satisfies every set criterion of q.
func (q GatheringQuery) Matches(g *Gathering) bool {
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, g.ID) {
		return false
	}
	if q.CreatorID != "" && g.CreatorID != q.CreatorID {
		return false
	}
	if q.Title != "" && g.Title != q.Title {
		return false
	}
	if q.HostID != "" && !slices.Contains(g.Hosts, q.HostID) {
		return false
	}
	if q.AcceptorID != "" && !slices.Contains(g.Acceptors, q.AcceptorID) {
		return false
	}
	if q.Canceled != nil && g.Canceled != *q.Canceled {
		return false
	}
	return true
}

// MembershipStrictness selects how set mutations reach the store.
type MembershipStrictness string

const (
	// StrictnessLenient reads the set, checks it in memory and writes the whole new set back.
	// Concurrent writers to the same gathering may overwrite each other.
	StrictnessLenient MembershipStrictness = "lenient"
	// StrictnessStrict tests and mutates membership in a single conditional store operation.
	StrictnessStrict MembershipStrictness = "strict"
)

// ParseMembershipStrictness parses a strictness name; empty means lenient.
func ParseMembershipStrictness(s string) (MembershipStrictness, error) {
	switch MembershipStrictness(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrictnessLenient:
		return StrictnessLenient, nil
	case StrictnessStrict:
		return StrictnessStrict, nil
	}
	return "", fmt.Errorf("unknown membership strictness %q", s)
}

// GatheringRepository defines storage operations for gatherings.
type GatheringRepository interface {
	// Create stores g with hosts seeded to {creator}. Fails with name_conflict when the creator already owns the title.
	Create(ctx context.Context, g *Gathering) error
	GetByID(ctx context.Context, id string) (*Gathering, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*Gathering, error)
	// Query returns matching gatherings, most recently updated first.
	Query(ctx context.Context, q GatheringQuery) ([]*Gathering, error)
	// Update applies u after checking it against UpdatableFields.
	Update(ctx context.Context, id string, u GatheringUpdate) (*Gathering, error)
	// AddToSet adds values to a member set in one conditional operation. Fails with the
	// field's *_already_exists code if any value is already a member.
	AddToSet(ctx context.Context, id string, field GatheringField, values ...string) (*Gathering, error)
	// RemoveFromSet removes value from a member set in one conditional operation. Fails with
	// the field's not-member code if value is absent. The creator is never removed from hosts.
	RemoveFromSet(ctx context.Context, id string, field GatheringField, value string) (*Gathering, error)
	// Delete removes a gathering that no invite references.
	Delete(ctx context.Context, id string) error
}

// AlreadyMember returns the state conflict raised when value is already in field's set.
func AlreadyMember(gatheringID string, field GatheringField, value string) error {
	switch field {
	case FieldHosts:
		return &Error{Code: CodeHostAlreadyExists, UserID: value, GatheringID: gatheringID}
	case FieldAcceptors:
		return &Error{Code: CodeAcceptorAlreadyExists, UserID: value, GatheringID: gatheringID}
	default:
		return &Error{Code: CodePostAlreadyExists, PostID: value, GatheringID: gatheringID}
	}
}

// NotMember returns the state conflict raised when value is absent from field's set.
func NotMember(gatheringID string, field GatheringField, value string) error {
	switch field {
	case FieldHosts:
		return &Error{Code: CodeHostNotFound, UserID: value, GatheringID: gatheringID}
	case FieldAcceptors:
		return &Error{Code: CodeNotCurrentlyAcceptor, UserID: value, GatheringID: gatheringID}
	default:
		return &Error{Code: CodePostNotFound, PostID: value, GatheringID: gatheringID}
	}
}
