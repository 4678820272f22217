package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/repository/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testTokens() *Tokens {
	return NewTokens(TokenConfig{Secret: testSecret, Issuer: "henmanager", Audience: "henmanager-app", TTL: 8 * time.Hour})
}

func newSeeded(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewService(store, testTokens(), nil)
	svc.cost = bcrypt.MinCost
	require.NoError(t, svc.Seed(context.Background(), "admin", "Admin123*"))
	return svc, store
}

func login(t *testing.T, svc *Service, user, password string) (LoginResult, access.Actor) {
	t.Helper()
	res, err := svc.Login(context.Background(), user, password)
	require.NoError(t, err)
	actor, err := svc.Validate(res.Token)
	require.NoError(t, err)
	return res, actor
}

func TestSeed_IsIdempotent(t *testing.T) {
	svc, store := newSeeded(t)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx, "admin", "ignored"))

	permissions, err := store.ListPermissions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, permissions, len(access.Definitions))

	roles, err := store.ListRoles(ctx, nil)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Len(t, roles[0].PermissionIDs, len(access.Definitions))

	users, err := store.ListUsers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, users, 1)

	// the password from the first run still works
	_, err = svc.Login(ctx, "admin", "Admin123*")
	require.NoError(t, err)
}

func TestLogin_AdminGetsEveryPermission(t *testing.T) {
	svc, _ := newSeeded(t)

	res, actor := login(t, svc, "ADMIN", "Admin123*")
	assert.Equal(t, "admin", res.User.UserName)
	require.Len(t, res.User.Roles, 1)
	assert.Equal(t, AdminRoleName, res.User.Roles[0].Name)
	assert.Len(t, res.User.Permissions, len(access.Definitions))

	assert.Equal(t, res.User.ID, actor.UserID)
	assert.True(t, actor.Can(access.RegisterPayment))
	assert.Equal(t, []string{AdminRoleName}, actor.Roles)
}

func TestLogin_Rejections(t *testing.T) {
	svc, _ := newSeeded(t)
	ctx := context.Background()
	_, adminActor := login(t, svc, "admin", "Admin123*")

	inactive, err := svc.CreateUser(ctx, adminActor, CreateUserInput{UserName: "sleepy", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.UpdateUser(ctx, adminActor, inactive.ID, UpdateUserInput{UserName: "sleepy", IsActive: false})
	require.NoError(t, err)

	tests := []struct {
		name     string
		user     string
		password string
		code     string
	}{
		{name: "wrong password", user: "admin", password: "nope", code: apperror.CodeUnauthorized},
		{name: "unknown user", user: "ghost", password: "x", code: apperror.CodeUnauthorized},
		{name: "inactive user", user: "sleepy", password: "pw", code: apperror.CodeUnauthorized},
		{name: "blank", user: " ", password: "", code: apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.user, tt.password)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestValidate_RejectsBadTokens(t *testing.T) {
	svc, _ := newSeeded(t)
	res, _ := login(t, svc, "admin", "Admin123*")

	other := NewTokens(TokenConfig{Secret: "another-secret-another-secret-xx", Issuer: "henmanager", Audience: "henmanager-app", TTL: time.Hour})
	forged, _, err := other.Issue("x", "x", nil, []string{access.ViewSales})
	require.NoError(t, err)

	expiredTokens := testTokens()
	expiredTokens.now = func() time.Time { return time.Now().Add(-9 * time.Hour) }
	expired, _, err := expiredTokens.Issue("x", "x", nil, nil)
	require.NoError(t, err)

	wrongAudience := NewTokens(TokenConfig{Secret: testSecret, Issuer: "henmanager", Audience: "someone-else", TTL: time.Hour})
	foreign, _, err := wrongAudience.Issue("x", "x", nil, nil)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":        "not-a-token",
		"forged":         forged,
		"expired":        expired,
		"wrong audience": foreign,
		"unsigned":       unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(token)
			assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
		})
	}

	_, err = svc.Validate(res.Token)
	assert.NoError(t, err)
}

func TestMe_FiltersNavigation(t *testing.T) {
	svc, store := newSeeded(t)
	ctx := context.Background()
	_, adminActor := login(t, svc, "admin", "Admin123*")

	viewSales, err := store.FindPermissionByCode(ctx, access.ViewSales)
	require.NoError(t, err)
	viewCredits, err := store.FindPermissionByCode(ctx, access.ViewCredits)
	require.NoError(t, err)

	role, err := svc.CreateRole(ctx, adminActor, RoleInput{Name: "Seller", PermissionIDs: []string{viewSales.ID, viewCredits.ID, viewSales.ID}})
	require.NoError(t, err)
	assert.Len(t, role.PermissionIDs, 2)

	_, err = svc.CreateUser(ctx, adminActor, CreateUserInput{UserName: "fatou", Password: "secret", RoleIDs: []string{role.ID}})
	require.NoError(t, err)

	_, seller := login(t, svc, "fatou", "secret")
	profile, err := svc.Me(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, []string{access.ViewCredits, access.ViewSales}, profile.Permissions)
	assert.Equal(t, []access.NavItem{{Text: "Sales", Path: "/sales"}, {Text: "Credits", Path: "/credits"}}, profile.Navigation)
}

func TestUsersAndRoles(t *testing.T) {
	svc, _ := newSeeded(t)
	ctx := context.Background()
	_, adminActor := login(t, svc, "admin", "Admin123*")

	_, err := svc.CreateUser(ctx, adminActor, CreateUserInput{UserName: "Admin", Password: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	_, err = svc.CreateUser(ctx, adminActor, CreateUserInput{UserName: "bob", Password: "x", RoleIDs: []string{"ghost"}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	role, err := svc.CreateRole(ctx, adminActor, RoleInput{Name: "Collector"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, adminActor, RoleInput{Name: "collector"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
	_, err = svc.CreateRole(ctx, adminActor, RoleInput{Name: "Other", PermissionIDs: []string{"ghost"}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	bob, err := svc.CreateUser(ctx, adminActor, CreateUserInput{UserName: "bob", Password: "x", RoleIDs: []string{role.ID}})
	require.NoError(t, err)

	err = svc.DeleteRole(ctx, adminActor, role.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidOperation))

	_, err = svc.UpdateUser(ctx, adminActor, bob.ID, UpdateUserInput{UserName: "bob", IsActive: true, Password: "new"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "bob", "new")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(ctx, adminActor, role.ID))
	err = svc.DeleteRole(ctx, adminActor, role.ID)
	assert.True(t, apperror.IsNotFound(err))

	err = svc.DeleteUser(ctx, adminActor, adminActor.UserID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidOperation))
	require.NoError(t, svc.DeleteUser(ctx, adminActor, bob.ID))

	_, err = svc.CreatePermission(ctx, adminActor, access.ViewSales, "again")
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	stranger := access.NewActor("s", "s", nil, nil)
	_, err = svc.ListUsers(ctx, stranger)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}
