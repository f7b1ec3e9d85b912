package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/workbridge/backend/internal/middleware"
	"github.com/workbridge/backend/internal/models"
)

// UserStore is the subset of the user repository the dashboard needs.
type UserStore interface {
	Update(ctx context.Context, u *models.User) error
}

// Handler serves the account dashboard endpoints.
type Handler struct {
	users UserStore
	log   *slog.Logger
}

func NewHandler(users UserStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{users: users, log: log}
}

// GetMe handles GET /api/v1/users/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	writeJSON(w, http.StatusOK, u)
}

type updateSettingsRequest struct {
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

// UpdateSettings handles PATCH /api/v1/users/me. Only the caller's own
// profile fields change; roles and balance are not editable here.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.log.Error("hash password", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		u.PasswordHash = string(hash)
	}

	if err := h.users.Update(r.Context(), u); err != nil {
		h.log.Error("update settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
