// Package farm manages the farm master data: hen batches, daily egg
// production, customers, the egg type catalogue and supplies.
package farm

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// Repository is the persistence the farm service needs.
type Repository interface {
	repository.BatchRepository
	repository.EggTypeRepository
	repository.ProductionRepository
	repository.CustomerRepository
	repository.SupplyRepository
}

// Service exposes the farm master data operations.
type Service struct {
	repo   Repository
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the farm service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// dayOr returns the calendar day of t, today when t is zero.
func (s *Service) dayOr(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return models.DayOf(t)
}

// lookupError maps a failed lookup of an id taken from the request path.
func lookupError(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFound(entity, id)
	}
	return apperror.NewInternal(fmt.Errorf("load %s %s: %w", entity, id, err))
}

// referenceError maps a failed lookup of an id carried in a request body.
func referenceError(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewMissingReference(entity, id)
	}
	return apperror.NewInternal(fmt.Errorf("load %s %s: %w", entity, id, err))
}

func writeError(err error, op, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFound(entity, id)
	}
	return apperror.NewInternal(fmt.Errorf("%s %s %s: %w", op, entity, id, err))
}
