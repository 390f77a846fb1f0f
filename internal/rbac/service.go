package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service orchestrates RBAC operations. Effective permissions are
// resolved once per user and cached in Redis; every mutation that can
// change a user's grant set invalidates the affected entries, and
// login/logout invalidate the current user explicitly.
type Service struct {
	repo     RepositoryPort
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService constructs a Service. The cache client may be nil, in
// which case every check hits the database.
func NewService(repo RepositoryPort, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role by ID. Returns ErrNotFound if nothing was deleted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	holders, err := s.repo.ListUsersWithRole(ctx, id)
	if err != nil {
		return err
	}
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	s.invalidateUsers(ctx, holders)
	return nil
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission upserts a permission ensuring description is stored.
func (s *Service) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	return s.repo.EnsurePermission(ctx, strings.TrimSpace(name), strings.TrimSpace(description))
}

// SetRolePermissions replaces permissions for a role.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	perms, err := s.repo.ListRolePermissions(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(perms))
	for _, p := range perms {
		existing[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := s.repo.AttachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	holders, err := s.repo.ListUsersWithRole(ctx, roleID)
	if err != nil {
		return err
	}
	s.invalidateUsers(ctx, holders)
	return nil
}

// AssignRole assigns a role to the given user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.InvalidateUser(ctx, userID)
	return nil
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.InvalidateUser(ctx, userID)
	return nil
}

// ListRolePermissions returns permissions attached to a role.
func (s *Service) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.repo.ListRolePermissions(ctx, roleID)
}

// EffectivePermissions returns deduplicated permission names for a
// user, served from cache when warm.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, s.cacheKey(userID)).Bytes()
		if err == nil {
			var perms []string
			if err := json.Unmarshal(data, &perms); err == nil {
				return perms, nil
			}
		}
	}

	perms, err := s.repo.UserEffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(perms); err == nil {
			_ = s.cache.Set(ctx, s.cacheKey(userID), data, s.cacheTTL).Err()
		}
	}
	return perms, nil
}

// InvalidateUser drops the cached permission set for a user. Called on
// login, logout and any grant mutation touching that user.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cacheKey(userID)).Err()
}

func (s *Service) invalidateUsers(ctx context.Context, userIDs []int64) {
	for _, id := range userIDs {
		s.InvalidateUser(ctx, id)
	}
}

func (s *Service) cacheKey(userID int64) string {
	return "rbac:perms:" + strconv.FormatInt(userID, 10)
}
