package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"gatherings/internal/delivery/http/helpers"
	"gatherings/internal/domain"
)

type errorStatus struct {
	status int
	code   string
}

var kindStatus = map[domain.Kind]errorStatus{
	domain.KindNotFound:        {http.StatusNotFound, helpers.ErrCodeNotFound},
	domain.KindNameConflict:    {http.StatusConflict, helpers.ErrCodeNameConflict},
	domain.KindNotAllowedField: {http.StatusBadRequest, helpers.ErrCodeFieldNotAllowed},
	domain.KindAuthorization:   {http.StatusForbidden, helpers.ErrCodeForbidden},
	domain.KindStateConflict:   {http.StatusConflict, helpers.ErrCodeConflict},
	domain.KindIntegrity:       {http.StatusConflict, helpers.ErrCodeIntegrityViolation},
	domain.KindInvalidInput:    {http.StatusBadRequest, helpers.ErrCodeBadRequest},
}

// writeServiceError maps a service error onto the response envelope. Unrecognised errors are
// logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if derr, ok := domain.AsError(err); ok {
		if st, ok := kindStatus[derr.Kind()]; ok {
			helpers.WriteAPIError(w, st.status, &helpers.APIError{
				Code:    st.code,
				Message: derr.Error(),
				Reason:  string(derr.Code),
				Details: &helpers.ErrorDetails{
					UserID:      derr.UserID,
					GatheringID: derr.GatheringID,
					Title:       derr.Title,
					Field:       derr.Field,
					PostID:      derr.PostID,
				},
			})
			return
		}
	}
	if errors.Is(err, domain.ErrConflict) {
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "concurrent update, retry")
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
}
