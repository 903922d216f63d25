package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gatherings/internal/delivery/http/helpers"
	"gatherings/internal/domain"
)

// CreateInviteRequest is the request body for POST /gatherings/{gatheringID}/invites.
type CreateInviteRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (c CreateInviteRequest) Validate() []string {
	if strings.TrimSpace(c.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

// InviteSuccessResponse is the success response envelope for endpoints returning one invite.
type InviteSuccessResponse struct {
	Data  *domain.Invite    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// InviteListSuccessResponse is the success response envelope for endpoints returning invites.
type InviteListSuccessResponse struct {
	Data  []*domain.Invite  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type InviteController struct {
	Logger  *slog.Logger
	Service domain.GatheringService
}

func NewInviteController(logger *slog.Logger, svc domain.GatheringService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// ListGatheringInvites godoc
// @Summary List invites of a gathering
// @Description Host only. One record per invitee, newest first.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Param status query string false "pending, accepted or declined"
// @Success 200 {object} controllers.InviteListSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /gatherings/{gatheringID}/invites [get]
func (c *InviteController) ListGatheringInvites(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	status, err := helpers.ParseInviteStatus(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.IsHost(r.Context(), userID, gatheringID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	list, err := c.Service.ListInvites(r.Context(), domain.InviteFilter{GatheringID: gatheringID, Status: status})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// CreateInvite godoc
// @Summary Invite a user
// @Description Host only. Fails with conflict (already_invited) while any record for the user exists.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Param body body CreateInviteRequest true "Invitee"
// @Success 201 {object} controllers.InviteSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /gatherings/{gatheringID}/invites [post]
func (c *InviteController) CreateInvite(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	var req CreateInviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	inv, err := c.Service.Invite(r.Context(), userID, req.UserID, gatheringID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// AcceptInvite godoc
// @Summary Accept the caller's invite
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Success 200 {object} controllers.InviteSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /gatherings/{gatheringID}/invites/accept [post]
func (c *InviteController) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.AcceptInvite)
}

// DeclineInvite godoc
// @Summary Decline the caller's invite
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Success 200 {object} controllers.InviteSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /gatherings/{gatheringID}/invites/decline [post]
func (c *InviteController) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.DeclineInvite)
}

type transitionFunc func(ctx context.Context, toID, gatheringID string) (*domain.Invite, error)

// transition applies fn to the caller's own invite.
func (c *InviteController) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	inv, err := fn(r.Context(), userID, gatheringID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// ListMyInvites godoc
// @Summary List invites addressed to the caller
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, accepted or declined"
// @Success 200 {object} controllers.InviteListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /invites/me [get]
func (c *InviteController) ListMyInvites(w http.ResponseWriter, r *http.Request) {
	status, err := helpers.ParseInviteStatus(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListInvites(r.Context(), domain.InviteFilter{ToID: userID, Status: status})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}
