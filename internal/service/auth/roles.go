package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// RoleInput carries a role definition.
type RoleInput struct {
	Name          string
	PermissionIDs []string
}

// ListRoles returns every role by name.
func (s *Service) ListRoles(ctx context.Context, actor access.Actor) ([]models.Role, error) {
	if err := actor.Require(access.ViewRoles); err != nil {
		return nil, err
	}
	roles, err := s.repo.ListRoles(ctx, nil)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list roles: %w", err))
	}
	return roles, nil
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, actor access.Actor, id string) (models.Role, error) {
	if err := actor.Require(access.ViewRoles); err != nil {
		return models.Role{}, err
	}
	role, err := s.repo.FindRole(ctx, id)
	if err != nil {
		return models.Role{}, notFound(err, "role", id)
	}
	return role, nil
}

// CreateRole defines a role.
func (s *Service) CreateRole(ctx context.Context, actor access.Actor, in RoleInput) (models.Role, error) {
	if err := actor.Require(access.CreateRole); err != nil {
		return models.Role{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Role{}, apperror.NewValidation("name is required")
	}
	permissionIDs, err := s.checkPermissions(ctx, in.PermissionIDs)
	if err != nil {
		return models.Role{}, err
	}

	role := models.Role{ID: s.newID(), Name: name, PermissionIDs: permissionIDs}
	if err := s.repo.InsertRole(ctx, role); err != nil {
		return models.Role{}, uniqueError(err, "role", "name", name)
	}
	s.logger.Info("role created", zap.String("role_id", role.ID), zap.String("name", name))
	return role, nil
}

// UpdateRole replaces a role definition.
func (s *Service) UpdateRole(ctx context.Context, actor access.Actor, id string, in RoleInput) (models.Role, error) {
	if err := actor.Require(access.EditRole); err != nil {
		return models.Role{}, err
	}
	role, err := s.repo.FindRole(ctx, id)
	if err != nil {
		return models.Role{}, notFound(err, "role", id)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Role{}, apperror.NewValidation("name is required")
	}
	permissionIDs, err := s.checkPermissions(ctx, in.PermissionIDs)
	if err != nil {
		return models.Role{}, err
	}

	role.Name = name
	role.PermissionIDs = permissionIDs
	if err := s.repo.ReplaceRole(ctx, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Role{}, apperror.NewNotFound("role", id)
		}
		return models.Role{}, uniqueError(err, "role", "name", name)
	}
	return role, nil
}

// DeleteRole removes a role that no user holds.
func (s *Service) DeleteRole(ctx context.Context, actor access.Actor, id string) error {
	if err := actor.Require(access.DeleteRole); err != nil {
		return err
	}
	assigned, err := s.repo.CountUsersWithRole(ctx, id)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("count users with role %s: %w", id, err))
	}
	if assigned > 0 {
		return apperror.NewInvalid("role is assigned to users").
			WithDetail("roleId", id).
			WithDetail("users", assigned)
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return notFound(err, "role", id)
	}
	s.logger.Info("role deleted", zap.String("role_id", id), zap.String("by", actor.UserID))
	return nil
}

// ListPermissions returns every permission by code.
func (s *Service) ListPermissions(ctx context.Context, actor access.Actor) ([]models.Permission, error) {
	if err := actor.Require(access.ViewRoles); err != nil {
		return nil, err
	}
	permissions, err := s.repo.ListPermissions(ctx, nil)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list permissions: %w", err))
	}
	return permissions, nil
}

// CreatePermission defines a permission code.
func (s *Service) CreatePermission(ctx context.Context, actor access.Actor, code, name string) (models.Permission, error) {
	if err := actor.Require(access.CreateRole); err != nil {
		return models.Permission{}, err
	}
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return models.Permission{}, apperror.NewValidation("code and name are required")
	}

	permission := models.Permission{ID: s.newID(), Code: code, Name: name}
	if err := s.repo.InsertPermission(ctx, permission); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Permission{}, apperror.NewConflict("permission already exists").WithDetail("code", code)
		}
		return models.Permission{}, apperror.NewInternal(fmt.Errorf("insert permission %s: %w", code, err))
	}
	return permission, nil
}

func (s *Service) checkPermissions(ctx context.Context, ids []string) ([]string, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	permissions, err := s.repo.ListPermissions(ctx, ids)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("load permissions: %w", err))
	}
	if missing := missingIDs(ids, len(permissions), func(i int) string { return permissions[i].ID }); len(missing) > 0 {
		return nil, apperror.NewValidation("unknown permissions").WithDetail("permissionIds", missing)
	}
	return ids, nil
}
