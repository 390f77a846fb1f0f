package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/rbac"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/shared"
)

type memoryAuthRepo struct {
	users    map[string]*User
	sessions map[string]int64
}

func (r *memoryAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (r *memoryAuthRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if r.sessions == nil {
		r.sessions = make(map[string]int64)
	}
	r.sessions[id] = userID
	return nil
}

func (r *memoryAuthRepo) DeleteSession(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

type stubRBACRepo struct{}

func (stubRBACRepo) ListRoles(context.Context) ([]rbac.Role, error)            { return nil, nil }
func (stubRBACRepo) GetRole(context.Context, int64) (rbac.Role, error)         { return rbac.Role{}, nil }
func (stubRBACRepo) CreateRole(context.Context, string, string) (rbac.Role, error) {
	return rbac.Role{}, nil
}
func (stubRBACRepo) UpdateRole(context.Context, int64, string, string) (rbac.Role, error) {
	return rbac.Role{}, nil
}
func (stubRBACRepo) DeleteRole(context.Context, int64) (int64, error)           { return 0, nil }
func (stubRBACRepo) ListPermissions(context.Context) ([]rbac.Permission, error) { return nil, nil }
func (stubRBACRepo) EnsurePermission(context.Context, string, string) (rbac.Permission, error) {
	return rbac.Permission{}, nil
}
func (stubRBACRepo) ListRolePermissions(context.Context, int64) ([]rbac.Permission, error) {
	return nil, nil
}
func (stubRBACRepo) AttachPermission(context.Context, int64, int64) error   { return nil }
func (stubRBACRepo) DetachPermission(context.Context, int64, int64) error   { return nil }
func (stubRBACRepo) AssignRole(context.Context, int64, int64) error         { return nil }
func (stubRBACRepo) RemoveRole(context.Context, int64, int64) error         { return nil }
func (stubRBACRepo) ListUsersWithRole(context.Context, int64) ([]int64, error) { return nil, nil }
func (stubRBACRepo) UserEffectivePermissions(context.Context, int64) ([]string, error) {
	return []string{"customers.view"}, nil
}

func newTestHandler(t *testing.T) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &memoryAuthRepo{users: map[string]*User{
		"tech@shop.local": {ID: 7, Email: "tech@shop.local", Name: "Tech", PasswordHash: string(hash), IsActive: true},
	}}

	sessions := shared.NewSessionManager(client, "mms_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	rbacService := rbac.NewService(stubRBACRepo{}, client, time.Minute)
	handler := NewHandler(slog.Default(), NewService(repo), sessions, csrf, rbacService)
	return handler, sessions
}

func doLogin(t *testing.T, h *Handler, sessions *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	h.handleLogin(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	h, sessions := newTestHandler(t)
	rec := doLogin(t, h, sessions, `{"email":"tech@shop.local","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UserID      int64    `json:"user_id"`
		Permissions []string `json:"permissions"`
		CSRFToken   string   `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(7), resp.UserID)
	require.Equal(t, []string{"customers.view"}, resp.Permissions)
	require.NotEmpty(t, resp.CSRFToken)
}

func TestLoginWrongPassword(t *testing.T) {
	h, sessions := newTestHandler(t)
	rec := doLogin(t, h, sessions, `{"email":"tech@shop.local","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	h, sessions := newTestHandler(t)
	rec := doLogin(t, h, sessions, `{"email":"not-an-email","password":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
