package farm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// ProductionInput carries a daily collection.
type ProductionInput struct {
	HenBatchID     string
	Date           time.Time
	Classification string
	Quantity       int
}

// ProductionFilter narrows ListProductions.
type ProductionFilter struct {
	BatchID string
	From    time.Time
	To      time.Time
}

// RegisterProduction records eggs collected for an active batch.
func (s *Service) RegisterProduction(ctx context.Context, actor access.Actor, in ProductionInput) (models.EggProduction, error) {
	if err := actor.Require(access.CreateProduction); err != nil {
		return models.EggProduction{}, err
	}
	if in.Quantity <= 0 {
		return models.EggProduction{}, apperror.NewValidation("quantity must be positive")
	}
	batch, err := s.activeBatch(ctx, in.HenBatchID)
	if err != nil {
		return models.EggProduction{}, err
	}
	classification, err := s.classification(ctx, in.Classification)
	if err != nil {
		return models.EggProduction{}, err
	}

	production := models.EggProduction{
		ID:             s.newID(),
		HenBatchID:     batch.ID,
		Date:           s.dayOr(in.Date),
		Classification: classification,
		Quantity:       in.Quantity,
		RegisteredByID: actor.UserID,
	}
	if err := s.repo.InsertProduction(ctx, production); err != nil {
		return models.EggProduction{}, apperror.NewInternal(fmt.Errorf("insert production: %w", err))
	}

	s.logger.Info("production registered",
		zap.String("production_id", production.ID),
		zap.String("batch_id", batch.ID),
		zap.String("classification", classification),
		zap.Int("quantity", production.Quantity),
		zap.String("user_id", actor.UserID))
	return production, nil
}

// ListProductions returns collections newest first.
func (s *Service) ListProductions(ctx context.Context, actor access.Actor, filter ProductionFilter) ([]models.EggProduction, error) {
	if err := actor.Require(access.ViewProduction); err != nil {
		return nil, err
	}
	list, err := s.repo.ListProductions(ctx, repository.ProductionFilter{
		BatchID: filter.BatchID,
		From:    dayOrZero(filter.From),
		To:      dayOrZero(filter.To),
	})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list productions: %w", err))
	}
	return list, nil
}

// UpdateProduction corrects a collection. Zero fields keep the stored value;
// moving the record to another batch requires that batch to exist.
func (s *Service) UpdateProduction(ctx context.Context, actor access.Actor, id string, in ProductionInput) (models.EggProduction, error) {
	if err := actor.Require(access.EditProduction); err != nil {
		return models.EggProduction{}, err
	}
	production, err := s.repo.FindProduction(ctx, id)
	if err != nil {
		return models.EggProduction{}, lookupError(err, "production", id)
	}

	if in.HenBatchID != "" && in.HenBatchID != production.HenBatchID {
		if _, err := s.repo.FindBatch(ctx, in.HenBatchID); err != nil {
			return models.EggProduction{}, referenceError(err, "batch", in.HenBatchID)
		}
		production.HenBatchID = in.HenBatchID
	}
	if in.Quantity < 0 {
		return models.EggProduction{}, apperror.NewValidation("quantity must be positive")
	}
	if in.Quantity > 0 {
		production.Quantity = in.Quantity
	}
	if !in.Date.IsZero() {
		production.Date = models.DayOf(in.Date)
	}
	if in.Classification != "" {
		classification, err := s.classification(ctx, in.Classification)
		if err != nil {
			return models.EggProduction{}, err
		}
		production.Classification = classification
	}

	if err := s.repo.ReplaceProduction(ctx, production); err != nil {
		return models.EggProduction{}, writeError(err, "replace", "production", id)
	}
	return production, nil
}

// DeleteProduction removes a collection.
func (s *Service) DeleteProduction(ctx context.Context, actor access.Actor, id string) error {
	if err := actor.Require(access.DeleteProduction); err != nil {
		return err
	}
	if err := s.repo.DeleteProduction(ctx, id); err != nil {
		return writeError(err, "delete", "production", id)
	}
	s.logger.Info("production deleted", zap.String("production_id", id), zap.String("user_id", actor.UserID))
	return nil
}

func dayOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return models.DayOf(t)
}
