package routes

import (
	"net/http"
	"time"

	"github.com/Asabi89/ken/controllers/admins"
	"github.com/Asabi89/ken/middleware"

	"github.com/gorilla/mux"
)

func SetAdminRoutes(api *mux.Router) {
	// admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Public admin routes
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.AdminLoginHandler))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)

	// Withdrawal settlement
	adminRouter.Handle("/withdrawals", http.HandlerFunc(admins.GetWithdrawals)).Methods(http.MethodGet)
	adminRouter.Handle("/withdrawals/{id:[0-9]+}/approve", http.HandlerFunc(admins.ApproveWithdrawal)).Methods(http.MethodPost)
	adminRouter.Handle("/withdrawals/{id:[0-9]+}/reject", http.HandlerFunc(admins.RejectWithdrawal)).Methods(http.MethodPost)

	// Influencer management
	adminRouter.Handle("/influencers", http.HandlerFunc(admins.GetInfluencers)).Methods(http.MethodGet)
	adminRouter.Handle("/influencers/{id:[0-9]+}/approve", http.HandlerFunc(admins.ApproveInfluencer)).Methods(http.MethodPost)
	adminRouter.Handle("/influencers/{id:[0-9]+}/reject", http.HandlerFunc(admins.RejectInfluencer)).Methods(http.MethodPost)
	adminRouter.Handle("/influencers/{id:[0-9]+}/suspend", http.HandlerFunc(admins.SuspendInfluencer)).Methods(http.MethodPost)

	// Ledger inspection
	adminRouter.Handle("/transactions", http.HandlerFunc(admins.GetTransactions)).Methods(http.MethodGet)
}
