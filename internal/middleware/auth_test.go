package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayush/vidvault/internal/auth"
	"github.com/ayush/vidvault/internal/models"
)

type stubSessions map[string]string

func (s stubSessions) Create(_ context.Context, userID string) (string, error) { return "", nil }
func (s stubSessions) Get(_ context.Context, sid string) (string, error)       { return s[sid], nil }
func (s stubSessions) Delete(_ context.Context, sid string) error              { return nil }
func (s stubSessions) Replace(_ context.Context, sid, userID string) error     { return nil }

type stubUsers map[string]*models.User

func (s stubUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if u := s[id]; u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("not found")
}

func okHandler(gotUser *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := r.Context().Value("user_id").(string); ok {
			*gotUser = uid
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	sessions := stubSessions{"sid-1": "user-1"}
	var gotUser string
	h := RequireAuth(sessions)(okHandler(&gotUser))

	// no cookie
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// stale cookie
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-gone"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// live session
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-1"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUser)
}

func TestRequireAdmin(t *testing.T) {
	users := stubUsers{
		"user-1": {ID: "user-1", Username: "alice"},
		"user-2": {ID: "user-2", Username: "admin", IsAdmin: true},
	}
	var gotUser string
	h := RequireAdmin(users)(okHandler(&gotUser))

	serve := func(uid string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req = req.WithContext(context.WithValue(req.Context(), "user_id", uid))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, serve("user-1"))
	assert.Equal(t, http.StatusForbidden, serve("user-gone"))
	assert.Equal(t, http.StatusOK, serve("user-2"))
}
