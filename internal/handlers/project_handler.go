package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/workbridge/backend/internal/middleware"
	"github.com/workbridge/backend/internal/models"
	"github.com/workbridge/backend/internal/services"
)

// ProjectService is the subset of the project service used by the handler.
type ProjectService interface {
	Create(ctx context.Context, client *models.User, in services.CreateProjectInput) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListOpen(ctx context.Context) ([]*models.Project, error)
	ListByClient(ctx context.Context, client *models.User) ([]*models.Project, error)
	ListByFreelancer(ctx context.Context, freelancer *models.User) ([]*models.Project, error)
	Update(ctx context.Context, client *models.User, id uuid.UUID, in services.UpdateProjectInput) (*models.Project, error)
	Assign(ctx context.Context, client *models.User, id, freelancerID uuid.UUID) (*models.Project, error)
	Complete(ctx context.Context, client *models.User, id uuid.UUID) (*models.Project, error)
	MarkCompletedByFreelancer(ctx context.Context, freelancer *models.User, id uuid.UUID) (*models.Project, error)
	Cancel(ctx context.Context, client *models.User, id uuid.UUID) (*models.Project, error)
	Delete(ctx context.Context, client *models.User, id uuid.UUID) error
}

// ProjectMatcher ranks open projects for a freelancer.
type ProjectMatcher interface {
	RecommendProjects(ctx context.Context, freelancer *models.User, area string, limit int) ([]*models.Project, error)
}

// ProjectHandler serves /api/v1/projects endpoints.
type ProjectHandler struct {
	Service ProjectService
	Matcher ProjectMatcher
	Logger  *slog.Logger
}

type createProjectRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Area        string     `json:"area"`
	Budget      int64      `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
}

// Create handles POST /api/v1/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	p, err := h.Service.Create(r.Context(), user, services.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Area:        req.Area,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListOpen handles GET /api/v1/projects.
func (h *ProjectHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListOpen(r.Context())
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListMine handles GET /api/v1/projects/mine (projects the caller posted).
func (h *ProjectHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	list, err := h.Service.ListByClient(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListAssigned handles GET /api/v1/projects/assigned (projects the caller works on).
func (h *ProjectHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	list, err := h.Service.ListByFreelancer(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Recommended handles GET /api/v1/projects/recommended?area=&limit=.
func (h *ProjectHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	list, err := h.Matcher.RecommendProjects(r.Context(), user, r.URL.Query().Get("area"), limit)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProjectRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Area        *string    `json:"area"`
	Budget      *int64     `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
}

// Update handles PUT /api/v1/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	p, err := h.Service.Update(r.Context(), user, id, services.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Area:        req.Area,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type assignRequest struct {
	FreelancerID uuid.UUID `json:"freelancer_id"`
}

// Assign handles POST /api/v1/projects/{id}/assign. Direct assignment of a
// freelancer to an open project; holds the budget in escrow.
func (h *ProjectHandler) Assign(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FreelancerID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "freelancer_id is required"})
		return
	}
	p, err := h.Service.Assign(r.Context(), user, id, req.FreelancerID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Complete handles POST /api/v1/projects/{id}/complete. Releases escrow to
// the freelancer.
func (h *ProjectHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	p, err := h.Service.Complete(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// MarkCompleted handles POST /api/v1/projects/{id}/mark-completed. The
// assigned freelancer flags the work done; no credits move.
func (h *ProjectHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	p, err := h.Service.MarkCompletedByFreelancer(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Cancel handles POST /api/v1/projects/{id}/cancel.
func (h *ProjectHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	p, err := h.Service.Cancel(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}
	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
