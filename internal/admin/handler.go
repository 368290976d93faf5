package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/vidvault/internal/auth"
	"github.com/ayush/vidvault/internal/models"
)

// Directory is the user lookup surface the dashboard needs.
type Directory interface {
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds the admin-only HTTP handlers. Routes are mounted behind
// RequireAuth + RequireAdmin.
type Handler struct {
	users    Directory
	sessions auth.Sessions
}

func NewHandler(users Directory, sessions auth.Sessions) *Handler {
	return &Handler{users: users, sessions: sessions}
}

// Dashboard lists every registered user with their content counts.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"users": users})
}

// Impersonate rebinds the admin's live session to the target user and sends
// them to the index as that user. Logging out ends the impersonation.
func (h *Handler) Impersonate(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	target, err := h.users.GetUserByID(r.Context(), targetID)
	if err != nil || target == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}

	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
		return
	}
	if err := h.sessions.Replace(r.Context(), cookie.Value, target.ID); err != nil {
		http.Error(w, `{"error":"session error"}`, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
