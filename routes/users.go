package routes

import (
	"net/http"
	"time"

	"github.com/Asabi89/ken/controllers/auth"
	"github.com/Asabi89/ken/controllers/users"
	"github.com/Asabi89/ken/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers auth and earner endpoints on the given subrouter.
func UsersRoutes(api *mux.Router) {
	// login/register: 60 per IP per 5 minutes
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// session: 120 reads / 60 writes per user per minute
	userLimiter := middleware.NewUserRateLimiter(120, 60, 60)

	// Register & Login
	api.Handle("/auth/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/auth/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/auth/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/auth/logout", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler)))).Methods(http.MethodPost)

	// Email verification
	api.Handle("/auth/verify-email", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.VerifyEmailHandler)))).Methods(http.MethodPost)
	api.Handle("/auth/resend-code", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.ResendCodeHandler)))).Methods(http.MethodPost)

	// Profile
	api.Handle("/users/me", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.ProfileHandler)))).Methods(http.MethodGet)
	api.Handle("/users/me", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.UpdateProfileHandler)))).Methods(http.MethodPut)

	// Tasks
	api.Handle("/users/tasks", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.TaskListHandler)))).Methods(http.MethodGet)
	api.Handle("/users/tasks/{id:[0-9]+}", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.TaskDetailHandler)))).Methods(http.MethodGet)
	api.Handle("/users/tasks/{id:[0-9]+}/complete", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.TaskCompleteHandler)))).Methods(http.MethodPost)
	api.Handle("/users/tasks/{id:[0-9]+}/submit", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.TaskSubmitHandler)))).Methods(http.MethodPost)
	api.Handle("/users/completions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.MyCompletionsHandler)))).Methods(http.MethodGet)

	// Withdrawals
	api.Handle("/users/withdrawals/setup", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.WithdrawalSetupHandler)))).Methods(http.MethodPost)
	api.Handle("/users/withdrawals/verify", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.WithdrawalVerifyHandler)))).Methods(http.MethodPost)
	api.Handle("/users/withdrawals", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.WithdrawalRequestHandler)))).Methods(http.MethodPost)
	api.Handle("/users/withdrawals", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.WithdrawalListHandler)))).Methods(http.MethodGet)

	// Transactions
	api.Handle("/users/transactions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.TransactionListHandler)))).Methods(http.MethodGet)
}
