package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. Use errors.Is against these to branch on the kind
// of a *Error without caring about its exact code.
var (
	ErrNotFound     = errors.New("not found")
	ErrNameConflict = errors.New("name conflict")
	ErrNotAllowed   = errors.New("field not allowed")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("state conflict")
	ErrIntegrity    = errors.New("integrity violation")
	ErrInvalid      = errors.New("invalid input")
)

// Kind groups error codes into the failure taxonomy.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindNameConflict
	KindNotAllowedField
	KindAuthorization
	KindStateConflict
	KindIntegrity
	KindInvalidInput
)

// Code identifies the precise rule that rejected an operation.
type Code string

const (
	CodeGatheringNotFound Code = "gathering_not_found"
	CodeInviteNotFound    Code = "invite_not_found"

	CodeNameConflict Code = "name_conflict"

	CodeFieldNotAllowed Code = "field_not_allowed"

	CodeNotHost       Code = "not_host"
	CodeNotInvited    Code = "not_invited"
	CodePendingInvite Code = "pending_invite"

	CodeAlreadyCanceled       Code = "already_canceled"
	CodeGatheringCanceled     Code = "gathering_canceled"
	CodeAlreadyAccepted       Code = "already_accepted"
	CodeAlreadyDeclined       Code = "already_declined"
	CodeAlreadyInvited        Code = "already_invited"
	CodeHostAlreadyExists     Code = "host_already_exists"
	CodeHostNotFound          Code = "host_not_found"
	CodeAcceptorAlreadyExists Code = "acceptor_already_exists"
	CodeNotCurrentlyAcceptor  Code = "not_currently_acceptor"
	CodePostAlreadyExists     Code = "post_already_exists"
	CodePostNotFound          Code = "post_not_found"

	CodeGatheringHasInvites Code = "gathering_has_invites"

	CodeFieldRequired Code = "field_required"
)

var codeKinds = map[Code]Kind{
	CodeGatheringNotFound:     KindNotFound,
	CodeInviteNotFound:        KindNotFound,
	CodeNameConflict:          KindNameConflict,
	CodeFieldNotAllowed:       KindNotAllowedField,
	CodeNotHost:               KindAuthorization,
	CodeNotInvited:            KindAuthorization,
	CodePendingInvite:         KindAuthorization,
	CodeAlreadyCanceled:       KindStateConflict,
	CodeGatheringCanceled:     KindStateConflict,
	CodeAlreadyAccepted:       KindStateConflict,
	CodeAlreadyDeclined:       KindStateConflict,
	CodeAlreadyInvited:        KindStateConflict,
	CodeHostAlreadyExists:     KindStateConflict,
	CodeHostNotFound:          KindStateConflict,
	CodeAcceptorAlreadyExists: KindStateConflict,
	CodeNotCurrentlyAcceptor:  KindStateConflict,
	CodePostAlreadyExists:     KindStateConflict,
	CodePostNotFound:          KindStateConflict,
	CodeGatheringHasInvites:   KindIntegrity,
	CodeFieldRequired:         KindInvalidInput,
}

var kindSentinels = map[Kind]error{
	KindNotFound:        ErrNotFound,
	KindNameConflict:    ErrNameConflict,
	KindNotAllowedField: ErrNotAllowed,
	KindAuthorization:   ErrForbidden,
	KindStateConflict:   ErrConflict,
	KindIntegrity:       ErrIntegrity,
	KindInvalidInput:    ErrInvalid,
}

// Error is a rejected operation. It carries raw identifiers only; turning a user id into a
// display name is left to the presentation layer.
type Error struct {
	Code        Code
	UserID      string
	GatheringID string
	Title       string
	Field       string
	PostID      string
}

// Kind reports the failure kind of the error code.
func (e *Error) Kind() Kind {
	return codeKinds[e.Code]
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeGatheringNotFound:
		return fmt.Sprintf("gathering %s not found", e.GatheringID)
	case CodeInviteNotFound:
		return fmt.Sprintf("no invite for user %s to gathering %s", e.UserID, e.GatheringID)
	case CodeNameConflict:
		return fmt.Sprintf("user %s already has a gathering titled %q", e.UserID, e.Title)
	case CodeFieldNotAllowed:
		return fmt.Sprintf("field %q cannot be updated", e.Field)
	case CodeNotHost:
		return fmt.Sprintf("user %s is not a host of gathering %s", e.UserID, e.GatheringID)
	case CodeNotInvited:
		return fmt.Sprintf("user %s is not invited to gathering %s", e.UserID, e.GatheringID)
	case CodePendingInvite:
		return fmt.Sprintf("user %s has not accepted the invite to gathering %s", e.UserID, e.GatheringID)
	case CodeAlreadyCanceled:
		return fmt.Sprintf("gathering %s is already canceled", e.GatheringID)
	case CodeGatheringCanceled:
		return fmt.Sprintf("gathering %s is canceled", e.GatheringID)
	case CodeAlreadyAccepted:
		return fmt.Sprintf("user %s already accepted the invite to gathering %s", e.UserID, e.GatheringID)
	case CodeAlreadyDeclined:
		return fmt.Sprintf("user %s already declined the invite to gathering %s", e.UserID, e.GatheringID)
	case CodeAlreadyInvited:
		return fmt.Sprintf("user %s is already invited to gathering %s", e.UserID, e.GatheringID)
	case CodeHostAlreadyExists:
		return fmt.Sprintf("user %s is already a host of gathering %s", e.UserID, e.GatheringID)
	case CodeHostNotFound:
		return fmt.Sprintf("user %s is not a removable host of gathering %s", e.UserID, e.GatheringID)
	case CodeAcceptorAlreadyExists:
		return fmt.Sprintf("user %s already accepted gathering %s", e.UserID, e.GatheringID)
	case CodeNotCurrentlyAcceptor:
		return fmt.Sprintf("user %s is not currently attending gathering %s", e.UserID, e.GatheringID)
	case CodePostAlreadyExists:
		return fmt.Sprintf("post %s is already attached to gathering %s", e.PostID, e.GatheringID)
	case CodePostNotFound:
		return fmt.Sprintf("post %s is not attached to gathering %s", e.PostID, e.GatheringID)
	case CodeFieldRequired:
		return fmt.Sprintf("%s is required", e.Field)
	case CodeGatheringHasInvites:
		return fmt.Sprintf("gathering %s has invite history and cannot be deleted", e.GatheringID)
	}
	return string(e.Code)
}

// Is matches the sentinel of the error's kind, or another *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	return kindSentinels[e.Kind()] == target
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GatheringNotFound returns the NotFound error for a missing gathering.
func GatheringNotFound(id string) error {
	return &Error{Code: CodeGatheringNotFound, GatheringID: id}
}

// InviteNotFound returns the NotFound error for a missing invite of user to a gathering.
func InviteNotFound(userID, gatheringID string) error {
	return &Error{Code: CodeInviteNotFound, UserID: userID, GatheringID: gatheringID}
}
