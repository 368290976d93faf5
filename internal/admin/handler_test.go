package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/vidvault/internal/auth"
	"github.com/ayush/vidvault/internal/models"
)

type fakeDirectory struct {
	users map[string]*models.User
	list  []models.UserSummary
}

func (f *fakeDirectory) ListUsers(_ context.Context) ([]models.UserSummary, error) {
	return f.list, nil
}

func (f *fakeDirectory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if u := f.users[id]; u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("not found")
}

type memSessions map[string]string

func (m memSessions) Create(_ context.Context, userID string) (string, error) { return "", nil }
func (m memSessions) Get(_ context.Context, sid string) (string, error)       { return m[sid], nil }
func (m memSessions) Delete(_ context.Context, sid string) error              { delete(m, sid); return nil }
func (m memSessions) Replace(_ context.Context, sid, userID string) error {
	m[sid] = userID
	return nil
}

func impersonateRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/admin/impersonate/{id}", h.Impersonate)
	return r
}

func TestImpersonateSwapsSession(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*models.User{
		"user-2": {ID: "user-2", Username: "bob"},
	}}
	sessions := memSessions{"sid-admin": "user-1"}
	h := NewHandler(dir, sessions)

	req := httptest.NewRequest(http.MethodGet, "/admin/impersonate/user-2", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-admin"})
	rec := httptest.NewRecorder()
	impersonateRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "user-2", sessions["sid-admin"], "session must now belong to the target")
}

func TestImpersonateUnknownUser(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*models.User{}}
	sessions := memSessions{"sid-admin": "user-1"}
	h := NewHandler(dir, sessions)

	req := httptest.NewRequest(http.MethodGet, "/admin/impersonate/ghost", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-admin"})
	rec := httptest.NewRecorder()
	impersonateRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user-1", sessions["sid-admin"], "session must be untouched")
}

func TestDashboardListsUsers(t *testing.T) {
	dir := &fakeDirectory{list: []models.UserSummary{
		{User: models.User{ID: "user-1", Username: "alice"}, Categories: 2, Videos: 5},
	}}
	h := NewHandler(dir, memSessions{})

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.Contains(t, rec.Body.String(), `"videos":5`)
}
