package routes

import (
	"net/http"

	"github.com/Asabi89/ken/controllers/influencers"
	"github.com/Asabi89/ken/middleware"

	"github.com/gorilla/mux"
)

// InfluencersRoutes registers task-creator endpoints on the given subrouter.
func InfluencersRoutes(api *mux.Router) {
	// 60 reads / 30 writes per user per minute
	influencerLimiter := middleware.NewUserRateLimiter(60, 30, 60)

	wrap := func(h http.HandlerFunc) http.Handler {
		return influencerLimiter.Middleware(middleware.AuthMiddleware(h))
	}

	api.Handle("/influencers/signup", wrap(influencers.SignupHandler)).Methods(http.MethodPost)
	api.Handle("/influencers/verify", wrap(influencers.VerifyHandler)).Methods(http.MethodPost)
	api.Handle("/influencers/dashboard", wrap(influencers.DashboardHandler)).Methods(http.MethodGet)

	api.Handle("/influencers/tasks", wrap(influencers.TaskCreateHandler)).Methods(http.MethodPost)
	api.Handle("/influencers/tasks", wrap(influencers.MyTasksHandler)).Methods(http.MethodGet)
	api.Handle("/influencers/tasks/{id:[0-9]+}", wrap(influencers.MyTaskDetailHandler)).Methods(http.MethodGet)
	api.Handle("/influencers/tasks/{id:[0-9]+}/status", wrap(influencers.TaskStatusHandler)).Methods(http.MethodPatch)

	api.Handle("/influencers/submissions", wrap(influencers.PendingSubmissionsHandler)).Methods(http.MethodGet)
	api.Handle("/influencers/submissions/{id:[0-9]+}/approve", wrap(influencers.ApproveSubmissionHandler)).Methods(http.MethodPost)
	api.Handle("/influencers/submissions/{id:[0-9]+}/reject", wrap(influencers.RejectSubmissionHandler)).Methods(http.MethodPost)
}
