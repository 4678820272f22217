// Package auth authenticates staff members and manages users, roles and
// permissions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

const invalidCredentials = "invalid user name or password"

// Repository is the persistence the auth service needs.
type Repository interface {
	repository.UserRepository
	repository.RoleRepository
	repository.PermissionRepository
}

// RoleSummary names a role held by a user.
type RoleSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserSummary describes the logged-in user.
type UserSummary struct {
	ID          string        `json:"id"`
	UserName    string        `json:"userName"`
	IsActive    bool          `json:"isActive"`
	Roles       []RoleSummary `json:"roles"`
	Permissions []string      `json:"permissions"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserSummary `json:"user"`
}

// Profile is the current user together with the menu entries they may open.
type Profile struct {
	UserSummary
	Navigation []access.NavItem `json:"navigation"`
}

// Service authenticates users and administers accounts.
type Service struct {
	repo   Repository
	tokens *Tokens
	logger *zap.Logger

	cost  int
	newID func() string
}

// NewService wires the auth service.
func NewService(repo Repository, tokens *Tokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger,
		cost:   bcrypt.DefaultCost,
		newID:  uuid.NewString,
	}
}

// Login checks the credentials and returns a signed token carrying the
// permission codes granted by the user's roles.
func (s *Service) Login(ctx context.Context, userName, password string) (LoginResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return LoginResult{}, apperror.NewValidation("userName and password are required")
	}

	user, err := s.repo.FindUserByName(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("login rejected", zap.String("user_name", userName), zap.String("reason", "unknown user"))
			return LoginResult{}, apperror.NewUnauthorized(invalidCredentials)
		}
		return LoginResult{}, apperror.NewInternal(fmt.Errorf("load user %s: %w", userName, err))
	}
	if !user.IsActive {
		s.logger.Info("login rejected", zap.String("user_id", user.ID), zap.String("reason", "inactive"))
		return LoginResult{}, apperror.NewUnauthorized(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("user_id", user.ID), zap.String("reason", "bad password"))
		return LoginResult{}, apperror.NewUnauthorized(invalidCredentials)
	}

	summary, err := s.summarize(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	roleNames := make([]string, 0, len(summary.Roles))
	for _, r := range summary.Roles {
		roleNames = append(roleNames, r.Name)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.UserName, roleNames, summary.Permissions)
	if err != nil {
		return LoginResult{}, apperror.NewInternal(err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.Int("permissions", len(summary.Permissions)))
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: summary}, nil
}

// Validate turns a bearer token into an Actor.
func (s *Service) Validate(token string) (access.Actor, error) {
	actor, err := s.tokens.Parse(token)
	if err != nil {
		return access.Actor{}, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}
	return actor, nil
}

// Me returns the current user with the navigation their token allows.
func (s *Service) Me(ctx context.Context, actor access.Actor) (Profile, error) {
	user, err := s.repo.FindUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, apperror.NewUnauthorized("user no longer exists")
		}
		return Profile{}, apperror.NewInternal(fmt.Errorf("load user %s: %w", actor.UserID, err))
	}
	summary, err := s.summarize(ctx, user)
	if err != nil {
		return Profile{}, err
	}
	// the token is authoritative until it expires
	summary.Permissions = actor.Permissions()
	return Profile{UserSummary: summary, Navigation: access.Navigation(actor)}, nil
}

// summarize resolves the roles and permission codes of user.
func (s *Service) summarize(ctx context.Context, user models.User) (UserSummary, error) {
	summary := UserSummary{
		ID:          user.ID,
		UserName:    user.UserName,
		IsActive:    user.IsActive,
		Roles:       []RoleSummary{},
		Permissions: []string{},
	}
	if len(user.RoleIDs) == 0 {
		return summary, nil
	}

	roles, err := s.repo.ListRoles(ctx, user.RoleIDs)
	if err != nil {
		return UserSummary{}, apperror.NewInternal(fmt.Errorf("load roles of %s: %w", user.ID, err))
	}
	var permissionIDs []string
	seen := map[string]bool{}
	for _, r := range roles {
		summary.Roles = append(summary.Roles, RoleSummary{ID: r.ID, Name: r.Name})
		for _, id := range r.PermissionIDs {
			if !seen[id] {
				seen[id] = true
				permissionIDs = append(permissionIDs, id)
			}
		}
	}
	if len(permissionIDs) == 0 {
		return summary, nil
	}

	permissions, err := s.repo.ListPermissions(ctx, permissionIDs)
	if err != nil {
		return UserSummary{}, apperror.NewInternal(fmt.Errorf("load permissions of %s: %w", user.ID, err))
	}
	for _, p := range permissions {
		summary.Permissions = append(summary.Permissions, p.Code)
	}
	sort.Strings(summary.Permissions)
	return summary, nil
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// unique drops duplicates and blanks, keeping the first occurrence order.
func unique(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
