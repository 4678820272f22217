// Package repository declares the persistence contracts shared by the
// MongoDB and in-memory stores.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/henmanager/internal/domain/models"
)

// Sentinel errors returned (wrapped) by every store implementation.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrVersionConflict = errors.New("version conflict")
)

// ProductionFilter narrows ListProductions. Zero values mean "any".
type ProductionFilter struct {
	BatchID string
	From    time.Time
	To      time.Time
}

// SaleFilter narrows ListSales. Zero values mean "any".
type SaleFilter struct {
	BatchID     string
	CustomerID  string
	PaymentType models.PaymentType
	PendingOnly bool
	From        time.Time
	To          time.Time
}

// CustomerFilter narrows ListCustomers.
type CustomerFilter struct {
	ActiveOnly bool
	// Search matches name, phone or email, case-insensitively.
	Search string
}

// SupplyFilter narrows ListSupplies.
type SupplyFilter struct {
	BatchID string
	From    time.Time
	To      time.Time
}

// BatchRepository stores hen batches.
type BatchRepository interface {
	InsertBatch(ctx context.Context, batch models.Batch) error
	FindBatch(ctx context.Context, id string) (models.Batch, error)
	// ListBatches returns batches newest start date first.
	ListBatches(ctx context.Context) ([]models.Batch, error)
	ReplaceBatch(ctx context.Context, batch models.Batch) error
}

// EggTypeRepository stores the classification catalogue.
type EggTypeRepository interface {
	InsertEggType(ctx context.Context, eggType models.EggType) error
	FindEggType(ctx context.Context, id string) (models.EggType, error)
	// FindEggTypeByName matches case-insensitively.
	FindEggTypeByName(ctx context.Context, name string) (models.EggType, error)
	// ListEggTypes orders by display order then name.
	ListEggTypes(ctx context.Context, activeOnly bool) ([]models.EggType, error)
	ReplaceEggType(ctx context.Context, eggType models.EggType) error
	CountEggTypes(ctx context.Context) (int64, error)
}

// ProductionRepository stores daily egg collections.
type ProductionRepository interface {
	InsertProduction(ctx context.Context, production models.EggProduction) error
	FindProduction(ctx context.Context, id string) (models.EggProduction, error)
	// ListProductions returns records newest date first.
	ListProductions(ctx context.Context, filter ProductionFilter) ([]models.EggProduction, error)
	ReplaceProduction(ctx context.Context, production models.EggProduction) error
	DeleteProduction(ctx context.Context, id string) error
	// ProducedByClassification sums quantities of a batch per classification.
	// Records without a classification are skipped.
	ProducedByClassification(ctx context.Context, batchID string) (map[string]int, error)
}

// SaleRepository stores sales and their payment log.
type SaleRepository interface {
	InsertSale(ctx context.Context, sale models.Sale) error
	FindSale(ctx context.Context, id string) (models.Sale, error)
	// ListSales returns sales newest date first, ties broken by creation time.
	ListSales(ctx context.Context, filter SaleFilter) ([]models.Sale, error)
	// SoldByClassification sums quantities of a batch per classification.
	// Sales without a classification are skipped.
	SoldByClassification(ctx context.Context, batchID string) (map[string]int, error)
	// UpdateSaleLedger writes the ledger fields and version of sale, provided
	// the stored version still equals expectedVersion. It returns
	// ErrVersionConflict otherwise.
	UpdateSaleLedger(ctx context.Context, sale models.Sale, expectedVersion int64) error
	// RecordPayment performs UpdateSaleLedger and appends payment as one
	// atomic unit.
	RecordPayment(ctx context.Context, sale models.Sale, expectedVersion int64, payment models.Payment) error
	// ListPayments returns the payments of a sale newest first.
	ListPayments(ctx context.Context, saleID string) ([]models.Payment, error)
}

// CustomerRepository stores customers.
type CustomerRepository interface {
	InsertCustomer(ctx context.Context, customer models.Customer) error
	FindCustomer(ctx context.Context, id string) (models.Customer, error)
	// ListCustomers orders by name.
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]models.Customer, error)
	ReplaceCustomer(ctx context.Context, customer models.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
}

// SupplyRepository stores supplies bought for batches.
type SupplyRepository interface {
	InsertSupply(ctx context.Context, supply models.Supply) error
	FindSupply(ctx context.Context, id string) (models.Supply, error)
	// ListSupplies returns supplies newest date first.
	ListSupplies(ctx context.Context, filter SupplyFilter) ([]models.Supply, error)
	ReplaceSupply(ctx context.Context, supply models.Supply) error
	DeleteSupply(ctx context.Context, id string) error
}

// UserRepository stores staff accounts.
type UserRepository interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUser(ctx context.Context, id string) (models.User, error)
	FindUserByName(ctx context.Context, userName string) (models.User, error)
	// ListUsers returns the users with the given ids, or all users when ids is nil.
	ListUsers(ctx context.Context, ids []string) ([]models.User, error)
	ReplaceUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	CountUsersWithRole(ctx context.Context, roleID string) (int64, error)
}

// RoleRepository stores roles.
type RoleRepository interface {
	InsertRole(ctx context.Context, role models.Role) error
	FindRole(ctx context.Context, id string) (models.Role, error)
	FindRoleByName(ctx context.Context, name string) (models.Role, error)
	// ListRoles returns the roles with the given ids, or all roles when ids is nil.
	ListRoles(ctx context.Context, ids []string) ([]models.Role, error)
	ReplaceRole(ctx context.Context, role models.Role) error
	DeleteRole(ctx context.Context, id string) error
}

// PermissionRepository stores permission definitions.
type PermissionRepository interface {
	InsertPermission(ctx context.Context, permission models.Permission) error
	FindPermissionByCode(ctx context.Context, code string) (models.Permission, error)
	// ListPermissions returns the permissions with the given ids, or all of
	// them when ids is nil, ordered by code.
	ListPermissions(ctx context.Context, ids []string) ([]models.Permission, error)
}

// ReportRepository stores daily report snapshots.
type ReportRepository interface {
	// SaveDailyReport upserts the report of report.Date.
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	// ListDailyReports returns reports between from and to inclusive, oldest first.
	ListDailyReports(ctx context.Context, from, to time.Time) ([]models.DailyReport, error)
}

// Store groups every repository behind one handle.
type Store interface {
	BatchRepository
	EggTypeRepository
	ProductionRepository
	SaleRepository
	CustomerRepository
	SupplyRepository
	UserRepository
	RoleRepository
	PermissionRepository
	ReportRepository

	Close(ctx context.Context) error
}

// InRange reports whether t falls between from and to inclusive, zero bounds
// being open.
func InRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
