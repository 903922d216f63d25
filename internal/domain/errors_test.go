package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_KindAndIs(t *testing.T) {
	tests := []struct {
		code     Code
		kind     Kind
		sentinel error
	}{
		{CodeGatheringNotFound, KindNotFound, ErrNotFound},
		{CodeInviteNotFound, KindNotFound, ErrNotFound},
		{CodeNameConflict, KindNameConflict, ErrNameConflict},
		{CodeFieldNotAllowed, KindNotAllowedField, ErrNotAllowed},
		{CodeNotHost, KindAuthorization, ErrForbidden},
		{CodePendingInvite, KindAuthorization, ErrForbidden},
		{CodeAlreadyInvited, KindStateConflict, ErrConflict},
		{CodePostNotFound, KindStateConflict, ErrConflict},
		{CodeGatheringHasInvites, KindIntegrity, ErrIntegrity},
		{CodeFieldRequired, KindInvalidInput, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := fmt.Errorf("op: %w", &Error{Code: tt.code})
			derr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, derr.Kind())
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, &Error{Code: tt.code})
			assert.NotErrorIs(t, err, &Error{Code: "other"})
		})
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Code: CodeGatheringNotFound, GatheringID: "g-1"}, "gathering g-1 not found"},
		{&Error{Code: CodeNameConflict, UserID: "alice", Title: "Picnic"}, `user alice already has a gathering titled "Picnic"`},
		{&Error{Code: CodeFieldNotAllowed, Field: "hosts"}, `field "hosts" cannot be updated`},
		{&Error{Code: CodePostNotFound, PostID: "p-1", GatheringID: "g-1"}, "post p-1 is not attached to gathering g-1"},
		{&Error{Code: CodeFieldRequired, Field: "title"}, "title is required"},
		{&Error{Code: "custom"}, "custom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestAsError_Plain(t *testing.T) {
	_, ok := AsError(errors.New("boom"))
	assert.False(t, ok)
	_, ok = AsError(nil)
	assert.False(t, ok)
}
