package farm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
)

// BatchInput carries the fields of a new batch.
type BatchInput struct {
	Name      string
	StartDate time.Time
	HensCount int
	Notes     string
}

// BatchUpdate changes the fields that are set. A zero start date or a
// non-positive hens count keeps the stored value.
type BatchUpdate struct {
	Name      *string
	StartDate time.Time
	HensCount int
	Notes     *string
}

// CreateBatch opens a new active batch.
func (s *Service) CreateBatch(ctx context.Context, actor access.Actor, in BatchInput) (models.Batch, error) {
	if err := actor.Require(access.CreateBatch); err != nil {
		return models.Batch{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Batch{}, apperror.NewValidation("name is required")
	}
	if in.HensCount < 0 {
		return models.Batch{}, apperror.NewValidation("hensCount must not be negative")
	}

	batch := models.Batch{
		ID:        s.newID(),
		Name:      name,
		StartDate: s.dayOr(in.StartDate),
		IsActive:  true,
		HensCount: in.HensCount,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		return models.Batch{}, apperror.NewInternal(fmt.Errorf("insert batch: %w", err))
	}

	s.logger.Info("batch created", zap.String("batch_id", batch.ID), zap.String("name", batch.Name))
	return batch, nil
}

// GetBatch returns one batch.
func (s *Service) GetBatch(ctx context.Context, actor access.Actor, id string) (models.Batch, error) {
	if err := actor.Require(access.ViewBatches); err != nil {
		return models.Batch{}, err
	}
	batch, err := s.repo.FindBatch(ctx, id)
	if err != nil {
		return models.Batch{}, lookupError(err, "batch", id)
	}
	return batch, nil
}

// ListBatches returns every batch, newest start date first.
func (s *Service) ListBatches(ctx context.Context, actor access.Actor) ([]models.Batch, error) {
	if err := actor.Require(access.ViewBatches); err != nil {
		return nil, err
	}
	list, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list batches: %w", err))
	}
	return list, nil
}

// UpdateBatch edits the descriptive fields of a batch.
func (s *Service) UpdateBatch(ctx context.Context, actor access.Actor, id string, in BatchUpdate) (models.Batch, error) {
	if err := actor.Require(access.EditBatch); err != nil {
		return models.Batch{}, err
	}
	batch, err := s.repo.FindBatch(ctx, id)
	if err != nil {
		return models.Batch{}, lookupError(err, "batch", id)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.Batch{}, apperror.NewValidation("name must not be empty")
		}
		batch.Name = name
	}
	if !in.StartDate.IsZero() {
		batch.StartDate = models.DayOf(in.StartDate)
	}
	if in.HensCount > 0 {
		batch.HensCount = in.HensCount
	}
	if in.Notes != nil {
		batch.Notes = strings.TrimSpace(*in.Notes)
	}

	if err := s.repo.ReplaceBatch(ctx, batch); err != nil {
		return models.Batch{}, writeError(err, "replace", "batch", id)
	}
	return batch, nil
}

// CloseBatch ends a batch. A closed batch cannot be reopened, and no
// production or sale can be registered against it afterwards.
func (s *Service) CloseBatch(ctx context.Context, actor access.Actor, id string) (models.Batch, error) {
	if err := actor.Require(access.CloseBatch); err != nil {
		return models.Batch{}, err
	}
	batch, err := s.repo.FindBatch(ctx, id)
	if err != nil {
		return models.Batch{}, lookupError(err, "batch", id)
	}
	if !batch.IsActive {
		return models.Batch{}, apperror.NewInvalid("batch already closed").WithDetail("henBatchId", id)
	}

	batch.Close(s.now())
	if err := s.repo.ReplaceBatch(ctx, batch); err != nil {
		return models.Batch{}, writeError(err, "replace", "batch", id)
	}

	s.logger.Info("batch closed", zap.String("batch_id", batch.ID), zap.String("user_id", actor.UserID))
	return batch, nil
}

// activeBatch loads a batch referenced by a request body and checks it is
// still open.
func (s *Service) activeBatch(ctx context.Context, id string) (models.Batch, error) {
	if id == "" {
		return models.Batch{}, apperror.NewValidation("henBatchId is required")
	}
	batch, err := s.repo.FindBatch(ctx, id)
	if err != nil {
		return models.Batch{}, referenceError(err, "batch", id)
	}
	if !batch.IsActive {
		return models.Batch{}, apperror.NewInvalid("batch closed").WithDetail("henBatchId", id)
	}
	return batch, nil
}
