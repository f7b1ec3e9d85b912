package router

import (
	"net/http"

	"github.com/workbridge/backend/internal/auth"
	"github.com/workbridge/backend/internal/dashboard"
	"github.com/workbridge/backend/internal/handlers"
	"github.com/workbridge/backend/internal/middleware"
)

// New returns an http.Handler that serves the API under /api/v1. authMW is
// applied to every route except register and login.
func New(
	authHandler *auth.Handler,
	projects *handlers.ProjectHandler,
	applications *handlers.ApplicationHandler,
	credits *handlers.CreditHandler,
	dash *dashboard.Handler,
	authMW func(http.Handler) http.Handler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	protected := http.NewServeMux()

	// Projects. Literal segments (mine, assigned, recommended) must be
	// registered alongside {id}; the mux prefers the more specific pattern.
	protected.HandleFunc("POST /api/v1/projects", projects.Create)
	protected.HandleFunc("GET /api/v1/projects", projects.ListOpen)
	protected.HandleFunc("GET /api/v1/projects/mine", projects.ListMine)
	protected.HandleFunc("GET /api/v1/projects/assigned", projects.ListAssigned)
	protected.HandleFunc("GET /api/v1/projects/recommended", projects.Recommended)
	protected.HandleFunc("GET /api/v1/projects/{id}", projects.Get)
	protected.HandleFunc("PUT /api/v1/projects/{id}", projects.Update)
	protected.HandleFunc("DELETE /api/v1/projects/{id}", projects.Delete)
	protected.HandleFunc("POST /api/v1/projects/{id}/assign", projects.Assign)
	protected.HandleFunc("POST /api/v1/projects/{id}/complete", projects.Complete)
	protected.HandleFunc("POST /api/v1/projects/{id}/mark-completed", projects.MarkCompleted)
	protected.HandleFunc("POST /api/v1/projects/{id}/cancel", projects.Cancel)

	// Applications
	protected.HandleFunc("POST /api/v1/projects/{id}/applications", applications.Apply)
	protected.HandleFunc("GET /api/v1/projects/{id}/applications", applications.ListByProject)
	protected.HandleFunc("GET /api/v1/applications/mine", applications.ListMine)
	protected.HandleFunc("POST /api/v1/applications/{id}/accept", applications.Accept)
	protected.HandleFunc("POST /api/v1/applications/{id}/reject", applications.Reject)
	protected.HandleFunc("DELETE /api/v1/applications/{id}", applications.Withdraw)

	// Credits
	protected.HandleFunc("GET /api/v1/credits/balance", credits.Balance)
	protected.HandleFunc("GET /api/v1/credits/transactions", credits.ListTransactions)
	protected.HandleFunc("POST /api/v1/credits/purchase", credits.Purchase)
	protected.HandleFunc("POST /api/v1/credits/withdraw", credits.Withdraw)

	// Credit requests; review endpoints are admin only
	protected.HandleFunc("POST /api/v1/credit-requests", credits.CreateRequest)
	protected.HandleFunc("GET /api/v1/credit-requests/mine", credits.ListMyRequests)
	protected.HandleFunc("DELETE /api/v1/credit-requests/{id}", credits.DeleteRequest)
	protected.Handle("GET /api/v1/credit-requests/pending", middleware.RequireAdmin(http.HandlerFunc(credits.ListPendingRequests)))
	protected.Handle("POST /api/v1/credit-requests/{id}/approve", middleware.RequireAdmin(http.HandlerFunc(credits.ApproveRequest)))
	protected.Handle("POST /api/v1/credit-requests/{id}/reject", middleware.RequireAdmin(http.HandlerFunc(credits.RejectRequest)))

	// Account
	protected.HandleFunc("GET /api/v1/users/me", dash.GetMe)
	protected.HandleFunc("PATCH /api/v1/users/me", dash.UpdateSettings)

	mux.Handle("/api/v1/", authMW(protected))

	return mux
}
