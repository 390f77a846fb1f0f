package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRBACRepo struct {
	perms      map[int64][]string
	queryCount int
}

func (r *memoryRBACRepo) ListRoles(ctx context.Context) ([]Role, error)       { return nil, nil }
func (r *memoryRBACRepo) GetRole(ctx context.Context, id int64) (Role, error) { return Role{}, nil }
func (r *memoryRBACRepo) CreateRole(ctx context.Context, name, description string) (Role, error) {
	return Role{Name: name, Description: description}, nil
}
func (r *memoryRBACRepo) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	return Role{ID: id, Name: name}, nil
}
func (r *memoryRBACRepo) DeleteRole(ctx context.Context, id int64) (int64, error) { return 1, nil }
func (r *memoryRBACRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return nil, nil
}
func (r *memoryRBACRepo) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	return Permission{Name: name}, nil
}
func (r *memoryRBACRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return nil, nil
}
func (r *memoryRBACRepo) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	return nil
}
func (r *memoryRBACRepo) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	return nil
}
func (r *memoryRBACRepo) AssignRole(ctx context.Context, userID, roleID int64) error { return nil }
func (r *memoryRBACRepo) RemoveRole(ctx context.Context, userID, roleID int64) error { return nil }
func (r *memoryRBACRepo) ListUsersWithRole(ctx context.Context, roleID int64) ([]int64, error) {
	return nil, nil
}
func (r *memoryRBACRepo) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	r.queryCount++
	return r.perms[userID], nil
}

func TestEffectivePermissionsCachedUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &memoryRBACRepo{perms: map[int64][]string{7: {"customers.view"}}}
	svc := NewService(repo, client, time.Minute)
	ctx := context.Background()

	perms, err := svc.EffectivePermissions(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"customers.view"}, perms)
	require.Equal(t, 1, repo.queryCount)

	// Second lookup is served from cache.
	perms, err = svc.EffectivePermissions(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"customers.view"}, perms)
	require.Equal(t, 1, repo.queryCount)

	// Grant change invalidates and the next lookup re-resolves.
	repo.perms[7] = []string{"customers.view", "customers.edit"}
	require.NoError(t, svc.AssignRole(ctx, 7, 1))

	perms, err = svc.EffectivePermissions(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"customers.view", "customers.edit"}, perms)
	require.Equal(t, 2, repo.queryCount)
}

func TestEffectivePermissionsWithoutCache(t *testing.T) {
	repo := &memoryRBACRepo{perms: map[int64][]string{1: {"reports.view"}}}
	svc := NewService(repo, nil, 0)

	perms, err := svc.EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"reports.view"}, perms)

	perms, err = svc.EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"reports.view"}, perms)
	require.Equal(t, 2, repo.queryCount)
}

func TestPermissionMatching(t *testing.T) {
	granted := []string{"customers.view", "Devices.Edit"}
	require.True(t, hasAnyPermission(granted, []string{"customers.view"}))
	require.True(t, hasAnyPermission(granted, []string{"devices.edit", "missing"}))
	require.False(t, hasAnyPermission(granted, []string{"missing"}))
	require.True(t, hasAllPermissions(granted, []string{"customers.view", "devices.edit"}))
	require.False(t, hasAllPermissions(granted, []string{"customers.view", "missing"}))
}
