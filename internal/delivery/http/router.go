package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherings/internal/delivery/http/controllers"
	"gatherings/internal/delivery/http/helpers"
)

// NewRouter registers the gathering and invite routes. requireAuth wraps every API route;
// metrics may be nil.
func NewRouter(
	gatherings *controllers.GatheringController,
	invites *controllers.InviteController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
	metrics http.Handler,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Gatherings
	mux.HandleFunc("POST /gatherings", requireAuth(gatherings.CreateGathering))
	mux.HandleFunc("GET /gatherings", requireAuth(gatherings.ListGatherings))
	mux.HandleFunc("GET /gatherings/me", requireAuth(gatherings.ListMyGatherings))
	mux.HandleFunc("GET /gatherings/{gatheringID}", requireAuth(gatherings.GetGathering))
	mux.HandleFunc("PATCH /gatherings/{gatheringID}", requireAuth(gatherings.UpdateGathering))
	mux.HandleFunc("DELETE /gatherings/{gatheringID}", requireAuth(gatherings.DeleteGathering))
	mux.HandleFunc("POST /gatherings/{gatheringID}/cancel", requireAuth(gatherings.CancelGathering))
	mux.HandleFunc("POST /gatherings/{gatheringID}/hosts", requireAuth(gatherings.AddHosts))
	mux.HandleFunc("GET /gatherings/{gatheringID}/access", requireAuth(gatherings.GetAccess))
	mux.HandleFunc("POST /gatherings/{gatheringID}/posts", requireAuth(gatherings.AddPost))
	mux.HandleFunc("DELETE /gatherings/{gatheringID}/posts/{postID}", requireAuth(gatherings.RemovePost))

	// Invites
	mux.HandleFunc("GET /gatherings/{gatheringID}/invites", requireAuth(invites.ListGatheringInvites))
	mux.HandleFunc("POST /gatherings/{gatheringID}/invites", requireAuth(invites.CreateInvite))
	mux.HandleFunc("POST /gatherings/{gatheringID}/invites/accept", requireAuth(invites.AcceptInvite))
	mux.HandleFunc("POST /gatherings/{gatheringID}/invites/decline", requireAuth(invites.DeclineInvite))
	mux.HandleFunc("GET /invites/me", requireAuth(invites.ListMyInvites))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
