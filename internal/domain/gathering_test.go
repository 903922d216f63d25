package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGatheringUpdate_CheckAllowed(t *testing.T) {
	tests := []struct {
		name      string
		update    GatheringUpdate
		allowed   []GatheringField
		wantField string
	}{
		{name: "empty", allowed: HostEditableFields},
		{name: "title and description", update: GatheringUpdate{Title: ptr("a"), Description: ptr("b")}, allowed: HostEditableFields},
		{name: "hosts never updatable", update: GatheringUpdate{Hosts: &[]string{"bob"}}, allowed: UpdatableFields, wantField: "hosts"},
		{name: "creator never updatable", update: GatheringUpdate{CreatorID: ptr("bob")}, allowed: UpdatableFields, wantField: "creator_id"},
		{name: "first offending field named", update: GatheringUpdate{Title: ptr("a"), Canceled: ptr(true), Posts: &[]string{}}, allowed: HostEditableFields, wantField: "canceled"},
		{name: "store may write acceptors", update: GatheringUpdate{Acceptors: &[]string{"bob"}}, allowed: UpdatableFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.CheckAllowed(tt.allowed)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrNotAllowed)
			derr, _ := AsError(err)
			assert.Equal(t, tt.wantField, derr.Field)
		})
	}
}

func TestGatheringUpdate_Apply(t *testing.T) {
	g := NewGathering("alice", "Picnic", "")
	posts := []string{"p-1"}
	u := GatheringUpdate{Title: ptr("Hike"), Canceled: ptr(true), Posts: &posts}
	require.False(t, u.Empty())
	require.Equal(t, []GatheringField{FieldTitle, FieldCanceled, FieldPosts}, u.Fields())

	u.Apply(g)
	posts[0] = "changed"

	assert.Equal(t, "Hike", g.Title)
	assert.True(t, g.Canceled)
	assert.Equal(t, []string{"p-1"}, g.Posts)
	assert.Equal(t, []string{"alice"}, g.Hosts)
	assert.True(t, GatheringUpdate{}.Empty())
}

func TestGathering_Clone(t *testing.T) {
	g := NewGathering("alice", "Picnic", "")
	c := g.Clone()
	c.Hosts[0] = "mallory"
	c.Acceptors = append(c.Acceptors, "bob")
	assert.Equal(t, []string{"alice"}, g.Hosts)
	assert.Empty(t, g.Acceptors)
	assert.Equal(t, c.Hosts, c.Set(FieldHosts))
	assert.Nil(t, c.Set(FieldTitle))
}

func TestGatheringQuery_Matches(t *testing.T) {
	g := NewGathering("alice", "Picnic", "")
	g.ID = "g-1"
	g.Hosts = append(g.Hosts, "hank")
	g.Acceptors = []string{"bob"}

	tests := []struct {
		name  string
		query GatheringQuery
		want  bool
	}{
		{"zero query", GatheringQuery{}, true},
		{"id", GatheringQuery{IDs: []string{"g-0", "g-1"}}, true},
		{"other id", GatheringQuery{IDs: []string{"g-2"}}, false},
		{"creator", GatheringQuery{CreatorID: "alice"}, true},
		{"title mismatch", GatheringQuery{Title: "Hike"}, false},
		{"co-host", GatheringQuery{HostID: "hank"}, true},
		{"acceptor", GatheringQuery{AcceptorID: "bob"}, true},
		{"not acceptor", GatheringQuery{AcceptorID: "hank"}, false},
		{"not canceled", GatheringQuery{Canceled: ptr(false)}, true},
		{"canceled", GatheringQuery{Canceled: ptr(true)}, false},
		{"all criteria", GatheringQuery{CreatorID: "alice", HostID: "hank", AcceptorID: "bob", Title: "Picnic"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Matches(g))
		})
	}
}

func TestMembershipHelpers(t *testing.T) {
	set := []string{"a", "b"}

	assert.Equal(t, []string{"a", "b", "c"}, WithMembers(set, "b", "c", "c"))
	assert.Equal(t, []string{}, WithMembers(nil))
	assert.Equal(t, []string{"b"}, WithoutMember(set, "a"))
	assert.Equal(t, []string{"a", "b"}, WithoutMember(set, "z"))
	assert.Equal(t, []string{"a", "b"}, set)

	v, ok := FirstMember(set, "z", "b", "a")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	_, ok = FirstMember(set, "z")
	assert.False(t, ok)
}

func TestMemberErrors(t *testing.T) {
	tests := []struct {
		field       GatheringField
		wantAlready Code
		wantMissing Code
	}{
		{FieldHosts, CodeHostAlreadyExists, CodeHostNotFound},
		{FieldAcceptors, CodeAcceptorAlreadyExists, CodeNotCurrentlyAcceptor},
		{FieldPosts, CodePostAlreadyExists, CodePostNotFound},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			assert.ErrorIs(t, AlreadyMember("g-1", tt.field, "x"), &Error{Code: tt.wantAlready})
			assert.ErrorIs(t, NotMember("g-1", tt.field, "x"), &Error{Code: tt.wantMissing})
		})
	}
	derr, _ := AsError(AlreadyMember("g-1", FieldPosts, "p-1"))
	assert.Equal(t, "p-1", derr.PostID)
	assert.Empty(t, derr.UserID)
}

func TestParseMembershipStrictness(t *testing.T) {
	tests := []struct {
		in      string
		want    MembershipStrictness
		wantErr bool
	}{
		{"", StrictnessLenient, false},
		{"lenient", StrictnessLenient, false},
		{" Strict ", StrictnessStrict, false},
		{"paranoid", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMembershipStrictness(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
