package helpers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"gatherings/internal/domain"
)

// ParseGatheringQuery reads creator, title, host, acceptor and canceled from the query string.
func ParseGatheringQuery(r *http.Request) (domain.GatheringQuery, error) {
	v := r.URL.Query()
	q := domain.GatheringQuery{
		CreatorID:  v.Get("creator"),
		Title:      v.Get("title"),
		HostID:     v.Get("host"),
		AcceptorID: v.Get("acceptor"),
	}
	if s := v.Get("canceled"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("canceled must be a boolean")
		}
		q.Canceled = &b
	}
	return q, nil
}

// ParseInviteStatus reads the optional status query parameter.
func ParseInviteStatus(r *http.Request) (domain.InviteStatus, error) {
	s := domain.InviteStatus(r.URL.Query().Get("status"))
	if s != "" && !s.Valid() {
		return "", fmt.Errorf("status must be one of pending, accepted, declined")
	}
	return s, nil
}

// PathID returns the named path value when it is a UUID. Otherwise it writes a 400 and
// returns false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}
