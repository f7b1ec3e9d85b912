package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/workbridge/backend/internal/middleware"
	"github.com/workbridge/backend/internal/models"
)

// ApplicationService is the subset of the application service used by the handler.
type ApplicationService interface {
	Apply(ctx context.Context, freelancer *models.User, projectID uuid.UUID, message string) (*models.ProjectApplication, error)
	Accept(ctx context.Context, client *models.User, applicationID uuid.UUID) (*models.ProjectApplication, error)
	Reject(ctx context.Context, client *models.User, applicationID uuid.UUID) (*models.ProjectApplication, error)
	Withdraw(ctx context.Context, freelancer *models.User, applicationID uuid.UUID) error
	ListByProject(ctx context.Context, caller *models.User, projectID uuid.UUID) ([]*models.ProjectApplication, error)
	ListMine(ctx context.Context, freelancer *models.User) ([]*models.ProjectApplication, error)
}

// ApplicationHandler serves the application endpoints.
type ApplicationHandler struct {
	Service ApplicationService
	Logger  *slog.Logger
}

type applyRequest struct {
	Message string `json:"message"`
}

// Apply handles POST /api/v1/projects/{id}/applications.
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	projectID, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	var req applyRequest
	if r.Body != nil {
		// Body is optional; a bare POST applies with no message.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	app, err := h.Service.Apply(r.Context(), user, projectID, req.Message)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ListByProject handles GET /api/v1/projects/{id}/applications.
func (h *ApplicationHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	projectID, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	list, err := h.Service.ListByProject(r.Context(), user, projectID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListMine handles GET /api/v1/applications/mine.
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	list, err := h.Service.ListMine(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Accept handles POST /api/v1/applications/{id}/accept.
func (h *ApplicationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid application id"})
		return
	}
	app, err := h.Service.Accept(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Reject handles POST /api/v1/applications/{id}/reject.
func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid application id"})
		return
	}
	app, err := h.Service.Reject(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Withdraw handles DELETE /api/v1/applications/{id}.
func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid application id"})
		return
	}
	if err := h.Service.Withdraw(r.Context(), user, id); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
