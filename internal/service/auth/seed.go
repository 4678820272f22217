package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// AdminRoleName is the role granted every permission on startup.
const AdminRoleName = "Admin"

// Seed inserts the missing permission codes, grants every permission to the
// Admin role and makes sure the bootstrap administrator exists. Existing
// permissions and the administrator's password are left untouched.
func (s *Service) Seed(ctx context.Context, adminUserName, adminPassword string) error {
	inserted := 0
	for _, def := range access.Definitions {
		_, err := s.repo.FindPermissionByCode(ctx, def.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("find permission %s: %w", def.Code, err)
		}
		permission := models.Permission{ID: s.newID(), Code: def.Code, Name: def.Name}
		if err := s.repo.InsertPermission(ctx, permission); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("insert permission %s: %w", def.Code, err)
		}
		inserted++
	}

	all, err := s.repo.ListPermissions(ctx, nil)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	ids := make([]string, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
	}

	role, err := s.repo.FindRoleByName(ctx, AdminRoleName)
	switch {
	case err == nil:
		role.PermissionIDs = ids
		if err := s.repo.ReplaceRole(ctx, role); err != nil {
			return fmt.Errorf("update admin role: %w", err)
		}
	case errors.Is(err, repository.ErrNotFound):
		role = models.Role{ID: s.newID(), Name: AdminRoleName, PermissionIDs: ids}
		if err := s.repo.InsertRole(ctx, role); err != nil {
			return fmt.Errorf("insert admin role: %w", err)
		}
	default:
		return fmt.Errorf("find admin role: %w", err)
	}

	user, err := s.repo.FindUserByName(ctx, adminUserName)
	switch {
	case err == nil:
		if !user.HasRole(role.ID) {
			user.RoleIDs = append(user.RoleIDs, role.ID)
			if err := s.repo.ReplaceUser(ctx, user); err != nil {
				return fmt.Errorf("grant admin role: %w", err)
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		hash, err := s.hash(adminPassword)
		if err != nil {
			return err
		}
		user = models.User{
			ID:           s.newID(),
			UserName:     adminUserName,
			PasswordHash: hash,
			IsActive:     true,
			RoleIDs:      []string{role.ID},
		}
		if err := s.repo.InsertUser(ctx, user); err != nil {
			return fmt.Errorf("insert admin user: %w", err)
		}
		s.logger.Info("admin user created", zap.String("user_name", adminUserName))
	default:
		return fmt.Errorf("find admin user: %w", err)
	}

	s.logger.Info("access control seeded",
		zap.Int("permissions_inserted", inserted),
		zap.Int("permissions_total", len(ids)))
	return nil
}
