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

// CreateUserInput carries a new account.
type CreateUserInput struct {
	UserName string
	Password string
	RoleIDs  []string
}

// UpdateUserInput replaces the account fields. An empty Password keeps the
// current one.
type UpdateUserInput struct {
	UserName string
	Password string
	IsActive bool
	RoleIDs  []string
}

// ListUsers returns every account by user name.
func (s *Service) ListUsers(ctx context.Context, actor access.Actor) ([]models.User, error) {
	if err := actor.Require(access.ViewUsers); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx, nil)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, actor access.Actor, id string) (models.User, error) {
	if err := actor.Require(access.ViewUsers); err != nil {
		return models.User{}, err
	}
	user, err := s.repo.FindUser(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, "user", id)
	}
	return user, nil
}

// CreateUser opens an active account.
func (s *Service) CreateUser(ctx context.Context, actor access.Actor, in CreateUserInput) (models.User, error) {
	if err := actor.Require(access.CreateUser); err != nil {
		return models.User{}, err
	}
	userName := strings.TrimSpace(in.UserName)
	if userName == "" || in.Password == "" {
		return models.User{}, apperror.NewValidation("userName and password are required")
	}
	roleIDs, err := s.checkRoles(ctx, in.RoleIDs)
	if err != nil {
		return models.User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return models.User{}, apperror.NewInternal(err)
	}

	user := models.User{
		ID:           s.newID(),
		UserName:     userName,
		PasswordHash: hash,
		IsActive:     true,
		RoleIDs:      roleIDs,
	}
	if err := s.repo.InsertUser(ctx, user); err != nil {
		return models.User{}, uniqueError(err, "user", "userName", userName)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("by", actor.UserID))
	return user, nil
}

// UpdateUser replaces an account.
func (s *Service) UpdateUser(ctx context.Context, actor access.Actor, id string, in UpdateUserInput) (models.User, error) {
	if err := actor.Require(access.EditUser); err != nil {
		return models.User{}, err
	}
	user, err := s.repo.FindUser(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, "user", id)
	}
	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		return models.User{}, apperror.NewValidation("userName is required")
	}
	roleIDs, err := s.checkRoles(ctx, in.RoleIDs)
	if err != nil {
		return models.User{}, err
	}

	user.UserName = userName
	user.IsActive = in.IsActive
	user.RoleIDs = roleIDs
	if in.Password != "" {
		if user.PasswordHash, err = s.hash(in.Password); err != nil {
			return models.User{}, apperror.NewInternal(err)
		}
	}

	if err := s.repo.ReplaceUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, apperror.NewNotFound("user", id)
		}
		return models.User{}, uniqueError(err, "user", "userName", userName)
	}
	return user, nil
}

// DeleteUser removes an account. Users cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor access.Actor, id string) error {
	if err := actor.Require(access.DeleteUser); err != nil {
		return err
	}
	if id == actor.UserID {
		return apperror.NewInvalid("cannot delete your own account")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return notFound(err, "user", id)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actor.UserID))
	return nil
}

// checkRoles deduplicates ids and verifies each names an existing role.
func (s *Service) checkRoles(ctx context.Context, ids []string) ([]string, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	roles, err := s.repo.ListRoles(ctx, ids)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("load roles: %w", err))
	}
	if missing := missingIDs(ids, len(roles), func(i int) string { return roles[i].ID }); len(missing) > 0 {
		return nil, apperror.NewValidation("unknown roles").WithDetail("roleIds", missing)
	}
	return ids, nil
}

func missingIDs(want []string, n int, id func(int) string) []string {
	found := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		found[id(i)] = true
	}
	var missing []string
	for _, w := range want {
		if !found[w] {
			missing = append(missing, w)
		}
	}
	return missing
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFound(entity, id)
	}
	return apperror.NewInternal(fmt.Errorf("%s %s: %w", entity, id, err))
}

func uniqueError(err error, entity, field, value string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.NewDuplicate(entity, field, value)
	}
	return apperror.NewInternal(fmt.Errorf("write %s %s: %w", entity, value, err))
}
