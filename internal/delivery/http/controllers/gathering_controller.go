package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"gatherings/internal/delivery/http/helpers"
	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/domain"
)

const maxTitleLength = 200

// CreateGatheringRequest is the request body for POST /gatherings.
type CreateGatheringRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (c CreateGatheringRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if len(c.Title) > maxTitleLength {
		errs = append(errs, "title must be at most 200 characters")
	}
	return errs
}

// GatheringSuccessResponse is the success response envelope for endpoints returning one gathering.
type GatheringSuccessResponse struct {
	Data  *domain.Gathering `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GatheringListSuccessResponse is the success response envelope for endpoints returning gatherings.
type GatheringListSuccessResponse struct {
	Data  []*domain.Gathering `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type GatheringController struct {
	Logger  *slog.Logger
	Service domain.GatheringService
}

func NewGatheringController(logger *slog.Logger, svc domain.GatheringService) *GatheringController {
	return &GatheringController{
		Logger:  logger,
		Service: svc,
	}
}

// callerID returns the authenticated user, writing 401 when absent.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// CreateGathering godoc
// @Summary Create a gathering
// @Description The authenticated user becomes the creator and first host. Titles are unique per creator.
// @Tags gatherings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gathering body CreateGatheringRequest true "Gathering data"
// @Success 201 {object} controllers.GatheringSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: name_conflict"
// @Router /gatherings [post]
func (c *GatheringController) CreateGathering(w http.ResponseWriter, r *http.Request) {
	var req CreateGatheringRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	g, err := c.Service.CreateGathering(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, g)
}

// ListGatherings godoc
// @Summary List gatherings
// @Description Filters by creator, title, host, acceptor and canceled. Most recently updated first.
// @Tags gatherings
// @Produce json
// @Security BearerAuth
// @Param creator query string false "Creator user ID"
// @Param title query string false "Exact title"
// @Param host query string false "Host user ID"
// @Param acceptor query string false "Acceptor user ID"
// @Param canceled query bool false "Canceled flag"
// @Success 200 {object} controllers.GatheringListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /gatherings [get]
func (c *GatheringController) ListGatherings(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	q, err := helpers.ParseGatheringQuery(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	list, err := c.Service.ListGatherings(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// ListMyGatherings godoc
// @Summary List gatherings created by the caller
// @Tags gatherings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.GatheringListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /gatherings/me [get]
func (c *GatheringController) ListMyGatherings(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListByCreator(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// GetGathering godoc
// @Summary Get a gathering
// @Description Visible to hosts and to users holding an accepted invite.
// @Tags gatherings
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Success 200 {object} controllers.GatheringSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /gatherings/{gatheringID} [get]
func (c *GatheringController) GetGathering(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.CanView(r.Context(), userID, gatheringID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	g, err := c.Service.GetGathering(r.Context(), gatheringID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, g)
}

// UpdateGathering godoc
// @Summary Update title or description
// @Description Host only. Any other gathering field in the body is rejected with field_not_allowed.
// @Tags gatherings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Param body body object true "title and/or description"
// @Success 200 {object} controllers.GatheringSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or field_not_allowed"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: name_conflict"
// @Router /gatherings/{gatheringID} [patch]
func (c *GatheringController) UpdateGathering(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	u, ok := decodeGatheringUpdate(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	g, err := c.Service.UpdateGathering(r.Context(), gatheringID, userID, u)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, g)
}

// decodeGatheringUpdate maps the PATCH body onto a typed update. Every stored field is
// recognised so the service can name the one it refuses; other keys are a bad request.
func decodeGatheringUpdate(w http.ResponseWriter, r *http.Request) (domain.GatheringUpdate, bool) {
	var u domain.GatheringUpdate
	var body map[string]json.RawMessage
	if !helpers.DecodeJSON(w, r, &body) {
		return u, false
	}
	for key, raw := range body {
		var err error
		switch domain.GatheringField(key) {
		case domain.FieldTitle:
			err = json.Unmarshal(raw, &u.Title)
		case domain.FieldDescription:
			err = json.Unmarshal(raw, &u.Description)
		case domain.FieldCreator:
			err = json.Unmarshal(raw, &u.CreatorID)
		case domain.FieldCanceled:
			err = json.Unmarshal(raw, &u.Canceled)
		case domain.FieldHosts:
			err = json.Unmarshal(raw, &u.Hosts)
		case domain.FieldAcceptors:
			err = json.Unmarshal(raw, &u.Acceptors)
		case domain.FieldPosts:
			err = json.Unmarshal(raw, &u.Posts)
		default:
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown field "+key)
			return u, false
		}
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, key+": "+err.Error())
			return u, false
		}
	}
	if u.Title != nil {
		if t := strings.TrimSpace(*u.Title); t == "" || len(*u.Title) > maxTitleLength {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "title must be 1 to 200 characters")
			return u, false
		}
	}
	return u, true
}

// DeleteGathering godoc
// @Summary Delete a gathering
// @Description Host only. Refused while any invite, in any status, references the gathering.
// @Tags gatherings
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: integrity_violation"
// @Router /gatherings/{gatheringID} [delete]
func (c *GatheringController) DeleteGathering(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteGathering(r.Context(), gatheringID, userID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelGathering godoc
// @Summary Cancel a gathering
// @Description Host only. Canceling twice fails with conflict.
// @Tags gatherings
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Success 200 {object} controllers.GatheringSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /gatherings/{gatheringID}/cancel [post]
func (c *GatheringController) CancelGathering(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	g, err := c.Service.CancelGathering(r.Context(), gatheringID, userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, g)
}

// AddHostsRequest is the request body for POST /gatherings/{gatheringID}/hosts.
type AddHostsRequest struct {
	UserIDs []string `json:"user_ids"`
}

// Validate implements Validator.
func (a AddHostsRequest) Validate() []string {
	if len(a.UserIDs) == 0 {
		return []string{"user_ids is required"}
	}
	for _, id := range a.UserIDs {
		if strings.TrimSpace(id) == "" {
			return []string{"user_ids must not contain empty values"}
		}
	}
	return nil
}

// AddHosts godoc
// @Summary Add co-hosts
// @Tags gatherings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Param body body AddHostsRequest true "User IDs"
// @Success 200 {object} controllers.GatheringSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (host_already_exists)"
// @Router /gatherings/{gatheringID}/hosts [post]
func (c *GatheringController) AddHosts(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	var req AddHostsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	g, err := c.Service.AddHosts(r.Context(), gatheringID, userID, req.UserIDs)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, g)
}

// AccessSuccessResponse is the success response envelope for GET /gatherings/{gatheringID}/access.
type AccessSuccessResponse struct {
	Data  *domain.Access    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetAccess godoc
// @Summary Describe the caller's relation to a gathering
// @Tags gatherings
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Success 200 {object} controllers.AccessSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /gatherings/{gatheringID}/access [get]
func (c *GatheringController) GetAccess(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	a, err := c.Service.Access(r.Context(), userID, gatheringID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, a)
}

// AddPostRequest is the request body for POST /gatherings/{gatheringID}/posts.
type AddPostRequest struct {
	PostID string `json:"post_id"`
}

// Validate implements Validator.
func (a AddPostRequest) Validate() []string {
	if strings.TrimSpace(a.PostID) == "" {
		return []string{"post_id is required"}
	}
	return nil
}

// AddPost godoc
// @Summary Attach a post
// @Description Allowed for hosts and accepted invitees.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Param body body AddPostRequest true "Post reference"
// @Success 200 {object} controllers.GatheringSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (post_already_exists)"
// @Router /gatherings/{gatheringID}/posts [post]
func (c *GatheringController) AddPost(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	var req AddPostRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.CanView(r.Context(), userID, gatheringID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	g, err := c.Service.AddPost(r.Context(), gatheringID, req.PostID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, g)
}

// RemovePost godoc
// @Summary Detach a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param gatheringID path string true "Gathering ID (UUID)"
// @Param postID path string true "Post ID"
// @Success 200 {object} controllers.GatheringSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (post_not_found)"
// @Router /gatherings/{gatheringID}/posts/{postID} [delete]
func (c *GatheringController) RemovePost(w http.ResponseWriter, r *http.Request) {
	gatheringID, ok := helpers.PathID(w, r, "gatheringID")
	if !ok {
		return
	}
	postID := r.PathValue("postID")
	if postID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing postID")
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.CanView(r.Context(), userID, gatheringID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	g, err := c.Service.RemovePost(r.Context(), gatheringID, postID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, g)
}
