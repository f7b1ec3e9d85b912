package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/workbridge/backend/internal/middleware"
	"github.com/workbridge/backend/internal/models"
)

// CreditService is the subset of the credit service used by the handler.
type CreditService interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
	PurchaseCredits(ctx context.Context, user *models.User, amount int64) (*models.Transaction, error)
	RequestWithdrawal(ctx context.Context, user *models.User, amount int64) (*models.Transaction, error)
	CreateCreditRequest(ctx context.Context, user *models.User, amount int64, description string) (*models.CreditRequest, error)
	ListMyCreditRequests(ctx context.Context, user *models.User) ([]*models.CreditRequest, error)
	ListPendingCreditRequests(ctx context.Context, admin *models.User) ([]*models.CreditRequest, error)
	ApproveCreditRequest(ctx context.Context, admin *models.User, requestID uuid.UUID) (*models.CreditRequest, error)
	RejectCreditRequest(ctx context.Context, admin *models.User, requestID uuid.UUID, reason string) (*models.CreditRequest, error)
	DeleteCreditRequest(ctx context.Context, user *models.User, requestID uuid.UUID) error
}

// CreditHandler serves the credits and credit-requests endpoints.
type CreditHandler struct {
	Service CreditService
	Logger  *slog.Logger
}

// Balance handles GET /api/v1/credits/balance.
func (h *CreditHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	balance, err := h.Service.Balance(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"credits_balance": balance})
}

// ListTransactions handles GET /api/v1/credits/transactions?limit=&offset=.
func (h *CreditHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	list, err := h.Service.ListTransactions(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// Purchase handles POST /api/v1/credits/purchase.
func (h *CreditHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	tr, err := h.Service.PurchaseCredits(r.Context(), user, req.Amount)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

// Withdraw handles POST /api/v1/credits/withdraw.
func (h *CreditHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	tr, err := h.Service.RequestWithdrawal(r.Context(), user, req.Amount)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

type createCreditRequestRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// CreateRequest handles POST /api/v1/credit-requests.
func (h *CreditHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var req createCreditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	c, err := h.Service.CreateCreditRequest(r.Context(), user, req.Amount, req.Description)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListMyRequests handles GET /api/v1/credit-requests/mine.
func (h *CreditHandler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	list, err := h.Service.ListMyCreditRequests(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListPendingRequests handles GET /api/v1/credit-requests/pending. Admin only.
func (h *CreditHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	list, err := h.Service.ListPendingCreditRequests(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ApproveRequest handles POST /api/v1/credit-requests/{id}/approve. Admin only.
func (h *CreditHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request id"})
		return
	}
	c, err := h.Service.ApproveCreditRequest(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type rejectCreditRequestRequest struct {
	Reason string `json:"reason"`
}

// RejectRequest handles POST /api/v1/credit-requests/{id}/reject. Admin only.
func (h *CreditHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request id"})
		return
	}
	var req rejectCreditRequestRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	c, err := h.Service.RejectCreditRequest(r.Context(), user, id, req.Reason)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteRequest handles DELETE /api/v1/credit-requests/{id}.
func (h *CreditHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request id"})
		return
	}
	if err := h.Service.DeleteCreditRequest(r.Context(), user, id); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
