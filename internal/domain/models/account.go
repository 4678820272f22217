package models

// User is a staff member allowed to log in.
type User struct {
	ID           string   `bson:"_id" json:"id"`
	UserName     string   `bson:"userName" json:"userName"`
	PasswordHash string   `bson:"passwordHash" json:"-"`
	IsActive     bool     `bson:"isActive" json:"isActive"`
	RoleIDs      []string `bson:"roleIds" json:"roleIds"`
}

// Role groups permissions assigned to users.
type Role struct {
	ID            string   `bson:"_id" json:"id"`
	Name          string   `bson:"name" json:"name"`
	PermissionIDs []string `bson:"permissionIds" json:"permissionIds"`
}

// Permission is a named capability referenced by roles.
type Permission struct {
	ID   string `bson:"_id" json:"id"`
	Code string `bson:"code" json:"code"`
	Name string `bson:"name" json:"name"`
}

// HasRole reports whether the user is assigned roleID.
func (u User) HasRole(roleID string) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
