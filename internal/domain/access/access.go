// Package access holds permission codes and the Actor capability object that
// services receive for every operation.
package access

import (
	"context"
	"sort"

	"github.com/mamadbah2/henmanager/internal/apperror"
)

// Permission codes. They travel as "permission" claims in the JWT.
const (
	ViewDashboard = "ViewDashboard"

	ViewBatches = "ViewBatches"
	CreateBatch = "CreateBatch"
	EditBatch   = "EditBatch"
	CloseBatch  = "CloseBatch"

	ViewProduction   = "ViewProduction"
	CreateProduction = "CreateProduction"
	EditProduction   = "EditProduction"
	DeleteProduction = "DeleteProduction"

	ViewSales  = "ViewSales"
	CreateSale = "CreateSale"

	ViewSupplies = "ViewSupplies"
	CreateSupply = "CreateSupply"
	EditSupply   = "EditSupply"
	DeleteSupply = "DeleteSupply"

	ViewCustomers  = "ViewCustomers"
	CreateCustomer = "CreateCustomer"
	EditCustomer   = "EditCustomer"
	DeleteCustomer = "DeleteCustomer"

	ViewCredits     = "ViewCredits"
	RegisterPayment = "RegisterPayment"
	CancelCredit    = "CancelCredit"

	ViewReports = "ViewReports"

	ViewEggTypes  = "ViewEggTypes"
	CreateEggType = "CreateEggType"
	EditEggType   = "EditEggType"
	DeleteEggType = "DeleteEggType"

	ViewUsers  = "ViewUsers"
	CreateUser = "CreateUser"
	EditUser   = "EditUser"
	DeleteUser = "DeleteUser"

	ViewRoles  = "ViewRoles"
	CreateRole = "CreateRole"
	EditRole   = "EditRole"
	DeleteRole = "DeleteRole"
)

// Definition is a seedable permission.
type Definition struct {
	Code string
	Name string
}

// Definitions lists every permission known to the application.
var Definitions = []Definition{
	{ViewBatches, "View batches"},
	{CreateBatch, "Create batch"},
	{EditBatch, "Edit batch"},
	{CloseBatch, "Close batch"},
	{ViewProduction, "View production"},
	{CreateProduction, "Register production"},
	{EditProduction, "Edit production"},
	{DeleteProduction, "Delete production"},
	{ViewSales, "View sales"},
	{CreateSale, "Register sale"},
	{ViewSupplies, "View supplies"},
	{CreateSupply, "Register supply"},
	{EditSupply, "Edit supply"},
	{DeleteSupply, "Delete supply"},
	{ViewCustomers, "View customers"},
	{CreateCustomer, "Create customer"},
	{EditCustomer, "Edit customer"},
	{DeleteCustomer, "Delete customer"},
	{ViewCredits, "View credits"},
	{RegisterPayment, "Register payment"},
	{CancelCredit, "Cancel credit"},
	{ViewReports, "View reports"},
	{ViewEggTypes, "View egg types"},
	{CreateEggType, "Create egg type"},
	{EditEggType, "Edit egg type"},
	{DeleteEggType, "Delete egg type"},
	{ViewUsers, "View users"},
	{CreateUser, "Create user"},
	{EditUser, "Edit user"},
	{DeleteUser, "Delete user"},
	{ViewRoles, "View roles"},
	{CreateRole, "Create role"},
	{EditRole, "Edit role"},
	{DeleteRole, "Delete role"},
	{ViewDashboard, "View dashboard"},
}

// Actor is the authenticated caller together with the permissions it holds.
type Actor struct {
	UserID      string
	UserName    string
	Roles       []string
	permissions map[string]struct{}
}

// NewActor builds an Actor from a permission code list.
func NewActor(userID, userName string, roles, permissions []string) Actor {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return Actor{UserID: userID, UserName: userName, Roles: roles, permissions: set}
}

// Can reports whether the actor holds permission.
func (a Actor) Can(permission string) bool {
	_, ok := a.permissions[permission]
	return ok
}

// Require returns a Forbidden error when the actor lacks permission.
func (a Actor) Require(permission string) error {
	if a.Can(permission) {
		return nil
	}
	return apperror.NewForbidden("insufficient permissions").
		WithDetail("required_permission", permission)
}

// Permissions returns the sorted permission codes.
func (a Actor) Permissions() []string {
	out := make([]string, 0, len(a.permissions))
	for p := range a.permissions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type actorKey struct{}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
