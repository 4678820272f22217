// Package memory is an in-process implementation of repository.Store. It backs
// the service tests and the STORAGE_DRIVER=memory mode used for demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// Store keeps every collection in maps guarded by a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	batches     map[string]models.Batch
	eggTypes    map[string]models.EggType
	productions map[string]models.EggProduction
	sales       map[string]models.Sale
	payments    map[string][]models.Payment
	customers   map[string]models.Customer
	supplies    map[string]models.Supply
	users       map[string]models.User
	roles       map[string]models.Role
	permissions map[string]models.Permission
	reports     map[string]models.DailyReport
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		batches:     map[string]models.Batch{},
		eggTypes:    map[string]models.EggType{},
		productions: map[string]models.EggProduction{},
		sales:       map[string]models.Sale{},
		payments:    map[string][]models.Payment{},
		customers:   map[string]models.Customer{},
		supplies:    map[string]models.Supply{},
		users:       map[string]models.User{},
		roles:       map[string]models.Role{},
		permissions: map[string]models.Permission{},
		reports:     map[string]models.DailyReport{},
	}
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, repository.ErrNotFound)
}

func duplicate(entity, field, value string) error {
	return fmt.Errorf("%s %s %q: %w", entity, field, value, repository.ErrDuplicate)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func idSet(ids []string) map[string]bool {
	if ids == nil {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func containsFold(field, needle string) bool {
	return strings.Contains(strings.ToLower(field), needle)
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}
