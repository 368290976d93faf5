package middleware

import (
	"context"
	"net/http"

	"github.com/ayush/vidvault/internal/auth"
	"github.com/ayush/vidvault/internal/models"
)

// UserDirectory is the user lookup RequireAdmin needs.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth is middleware that validates the session cookie and
// injects the user_id into the request context.
func RequireAuth(sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || userID == "" {
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the is_admin flag of the session's user.
// Must run after RequireAuth.
func RequireAdmin(users UserDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := r.Context().Value("user_id").(string)
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || user == nil || !user.IsAdmin {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
