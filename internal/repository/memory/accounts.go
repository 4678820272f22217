package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

func cloneUser(u models.User) models.User {
	u.RoleIDs = cloneStrings(u.RoleIDs)
	return u
}

func cloneRole(r models.Role) models.Role {
	r.PermissionIDs = cloneStrings(r.PermissionIDs)
	return r
}

func (s *Store) InsertUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.UserName, user.UserName) {
			return duplicate("user", "userName", user.UserName)
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) FindUser(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, notFound("user", id)
	}
	return cloneUser(user), nil
}

func (s *Store) FindUserByName(_ context.Context, userName string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.UserName, userName) {
			return cloneUser(user), nil
		}
	}
	return models.User{}, notFound("user", userName)
}

func (s *Store) ListUsers(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(ids)
	out := make([]models.User, 0, len(s.users))
	for id, user := range s.users {
		if want != nil && !want[id] {
			continue
		}
		out = append(out, cloneUser(user))
	}
	sortByName(out, func(u models.User) string { return u.UserName })
	return out, nil
}

func (s *Store) ReplaceUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return notFound("user", user.ID)
	}
	for id, existing := range s.users {
		if id != user.ID && strings.EqualFold(existing.UserName, user.UserName) {
			return duplicate("user", "userName", user.UserName)
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CountUsersWithRole(_ context.Context, roleID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, user := range s.users {
		if user.HasRole(roleID) {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertRole(_ context.Context, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return duplicate("role", "name", role.Name)
		}
	}
	s.roles[role.ID] = cloneRole(role)
	return nil
}

func (s *Store) FindRole(_ context.Context, id string) (models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		return models.Role{}, notFound("role", id)
	}
	return cloneRole(role), nil
}

func (s *Store) FindRoleByName(_ context.Context, name string) (models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if strings.EqualFold(role.Name, name) {
			return cloneRole(role), nil
		}
	}
	return models.Role{}, notFound("role", name)
}

func (s *Store) ListRoles(_ context.Context, ids []string) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(ids)
	out := make([]models.Role, 0, len(s.roles))
	for id, role := range s.roles {
		if want != nil && !want[id] {
			continue
		}
		out = append(out, cloneRole(role))
	}
	sortByName(out, func(r models.Role) string { return r.Name })
	return out, nil
}

func (s *Store) ReplaceRole(_ context.Context, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; !ok {
		return notFound("role", role.ID)
	}
	for id, existing := range s.roles {
		if id != role.ID && strings.EqualFold(existing.Name, role.Name) {
			return duplicate("role", "name", role.Name)
		}
	}
	s.roles[role.ID] = cloneRole(role)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return notFound("role", id)
	}
	delete(s.roles, id)
	return nil
}

func (s *Store) InsertPermission(_ context.Context, permission models.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Code == permission.Code {
			return duplicate("permission", "code", permission.Code)
		}
	}
	s.permissions[permission.ID] = permission
	return nil
}

func (s *Store) FindPermissionByCode(_ context.Context, code string) (models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.Code == code {
			return p, nil
		}
	}
	return models.Permission{}, notFound("permission", code)
}

func (s *Store) ListPermissions(_ context.Context, ids []string) ([]models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(ids)
	out := make([]models.Permission, 0, len(s.permissions))
	for id, p := range s.permissions {
		if want != nil && !want[id] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) SaveDailyReport(_ context.Context, report models.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report.Date = models.DayOf(report.Date)
	s.reports[report.Date.Format(time.DateOnly)] = report
	return nil
}

func (s *Store) ListDailyReports(_ context.Context, from, to time.Time) ([]models.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DailyReport, 0)
	for _, r := range s.reports {
		if repository.InRange(r.Date, from, to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
