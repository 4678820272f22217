package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/henmanager/internal/domain/models"
)

// InsertUser inserts a new user.
func (r *MongoDBRepository) InsertUser(ctx context.Context, user models.User) error {
	return insert(ctx, r.coll(collUsers), user, "user", user.UserName)
}

// FindUser returns the user with the given id.
func (r *MongoDBRepository) FindUser(ctx context.Context, id string) (models.User, error) {
	return findOne[models.User](ctx, r.coll(collUsers), bson.M{"_id": id}, "user", id)
}

// FindUserByName matches the user name case-insensitively.
func (r *MongoDBRepository) FindUserByName(ctx context.Context, userName string) (models.User, error) {
	opts := options.FindOne().SetCollation(caseInsensitive)
	return findOne[models.User](ctx, r.coll(collUsers), bson.M{"userName": userName}, "user", userName, opts)
}

// ListUsers returns the given users, or all of them when ids is nil.
func (r *MongoDBRepository) ListUsers(ctx context.Context, ids []string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "userName", Value: 1}}).SetCollation(caseInsensitive)
	return findAll[models.User](ctx, r.coll(collUsers), idFilter(ids), opts)
}

// ReplaceUser overwrites an existing user.
func (r *MongoDBRepository) ReplaceUser(ctx context.Context, user models.User) error {
	return replaceByID(ctx, r.coll(collUsers), user.ID, user, "user")
}

// DeleteUser removes a user.
func (r *MongoDBRepository) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll(collUsers), id, "user")
}

// CountUsersWithRole counts the users holding the role.
func (r *MongoDBRepository) CountUsersWithRole(ctx context.Context, roleID string) (int64, error) {
	n, err := r.coll(collUsers).CountDocuments(ctx, bson.M{"roleIds": roleID})
	if err != nil {
		return 0, fmt.Errorf("count users with role %s: %w", roleID, err)
	}
	return n, nil
}

// InsertRole inserts a new role.
func (r *MongoDBRepository) InsertRole(ctx context.Context, role models.Role) error {
	return insert(ctx, r.coll(collRoles), role, "role", role.Name)
}

// FindRole returns the role with the given id.
func (r *MongoDBRepository) FindRole(ctx context.Context, id string) (models.Role, error) {
	return findOne[models.Role](ctx, r.coll(collRoles), bson.M{"_id": id}, "role", id)
}

// FindRoleByName matches the role name case-insensitively.
func (r *MongoDBRepository) FindRoleByName(ctx context.Context, name string) (models.Role, error) {
	opts := options.FindOne().SetCollation(caseInsensitive)
	return findOne[models.Role](ctx, r.coll(collRoles), bson.M{"name": name}, "role", name, opts)
}

// ListRoles returns the given roles, or all of them when ids is nil.
func (r *MongoDBRepository) ListRoles(ctx context.Context, ids []string) ([]models.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetCollation(caseInsensitive)
	return findAll[models.Role](ctx, r.coll(collRoles), idFilter(ids), opts)
}

// ReplaceRole overwrites an existing role.
func (r *MongoDBRepository) ReplaceRole(ctx context.Context, role models.Role) error {
	return replaceByID(ctx, r.coll(collRoles), role.ID, role, "role")
}

// DeleteRole removes a role.
func (r *MongoDBRepository) DeleteRole(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll(collRoles), id, "role")
}

// InsertPermission inserts a permission.
func (r *MongoDBRepository) InsertPermission(ctx context.Context, permission models.Permission) error {
	return insert(ctx, r.coll(collPermissions), permission, "permission", permission.Code)
}

// FindPermissionByCode returns the permission with the given code.
func (r *MongoDBRepository) FindPermissionByCode(ctx context.Context, code string) (models.Permission, error) {
	return findOne[models.Permission](ctx, r.coll(collPermissions), bson.M{"code": code}, "permission", code)
}

// ListPermissions returns the given permissions, or all of them when ids is nil.
func (r *MongoDBRepository) ListPermissions(ctx context.Context, ids []string) ([]models.Permission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	return findAll[models.Permission](ctx, r.coll(collPermissions), idFilter(ids), opts)
}

// SaveDailyReport upserts the report of the day so a rerun of the snapshot job
// replaces the earlier figures.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	report.Date = models.DayOf(report.Date)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll(collDailyReports).ReplaceOne(ctx, bson.M{"date": report.Date}, report, opts); err != nil {
		return fmt.Errorf("failed to upsert daily report: %w", err)
	}
	return nil
}

// ListDailyReports returns the stored daily reports within the range.
func (r *MongoDBRepository) ListDailyReports(ctx context.Context, from, to time.Time) ([]models.DailyReport, error) {
	query := bson.M{}
	dateRange(query, "date", from, to)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return findAll[models.DailyReport](ctx, r.coll(collDailyReports), query, opts)
}
