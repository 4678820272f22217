package farm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// SupplyInput carries a supply purchase. On update, empty or zero fields keep
// the stored value.
type SupplyInput struct {
	HenBatchID string
	Date       time.Time
	Name       string
	Quantity   decimal.Decimal
	Unit       string
	Cost       *decimal.Decimal
}

// CreateSupply records a supply bought for a batch. Closed batches still
// accept supplies so late invoices can be booked.
func (s *Service) CreateSupply(ctx context.Context, actor access.Actor, in SupplyInput) (models.Supply, error) {
	if err := actor.Require(access.CreateSupply); err != nil {
		return models.Supply{}, err
	}
	name := strings.TrimSpace(in.Name)
	switch {
	case in.HenBatchID == "":
		return models.Supply{}, apperror.NewValidation("henBatchId is required")
	case name == "":
		return models.Supply{}, apperror.NewValidation("name is required")
	case !in.Quantity.IsPositive():
		return models.Supply{}, apperror.NewValidation("quantity must be positive")
	case in.Cost != nil && in.Cost.IsNegative():
		return models.Supply{}, apperror.NewValidation("cost must not be negative")
	}
	if _, err := s.repo.FindBatch(ctx, in.HenBatchID); err != nil {
		return models.Supply{}, referenceError(err, "batch", in.HenBatchID)
	}

	supply := models.Supply{
		ID:             s.newID(),
		HenBatchID:     in.HenBatchID,
		Date:           s.dayOr(in.Date),
		Name:           name,
		Quantity:       in.Quantity,
		Unit:           strings.TrimSpace(in.Unit),
		Cost:           in.Cost,
		RegisteredByID: actor.UserID,
	}
	if err := s.repo.InsertSupply(ctx, supply); err != nil {
		return models.Supply{}, apperror.NewInternal(fmt.Errorf("insert supply: %w", err))
	}

	s.logger.Info("supply registered",
		zap.String("supply_id", supply.ID),
		zap.String("batch_id", supply.HenBatchID),
		zap.String("name", supply.Name),
		zap.String("cost", supply.CostOrZero().String()))
	return supply, nil
}

// ListSupplies returns supplies newest first, optionally for one batch.
func (s *Service) ListSupplies(ctx context.Context, actor access.Actor, batchID string) ([]models.Supply, error) {
	if err := actor.Require(access.ViewSupplies); err != nil {
		return nil, err
	}
	list, err := s.repo.ListSupplies(ctx, repository.SupplyFilter{BatchID: batchID})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list supplies: %w", err))
	}
	return list, nil
}

// UpdateSupply corrects a supply.
func (s *Service) UpdateSupply(ctx context.Context, actor access.Actor, id string, in SupplyInput) (models.Supply, error) {
	if err := actor.Require(access.EditSupply); err != nil {
		return models.Supply{}, err
	}
	supply, err := s.repo.FindSupply(ctx, id)
	if err != nil {
		return models.Supply{}, lookupError(err, "supply", id)
	}

	if in.HenBatchID != "" && in.HenBatchID != supply.HenBatchID {
		if _, err := s.repo.FindBatch(ctx, in.HenBatchID); err != nil {
			return models.Supply{}, referenceError(err, "batch", in.HenBatchID)
		}
		supply.HenBatchID = in.HenBatchID
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		supply.Name = name
	}
	if in.Quantity.IsNegative() {
		return models.Supply{}, apperror.NewValidation("quantity must be positive")
	}
	if in.Quantity.IsPositive() {
		supply.Quantity = in.Quantity
	}
	if unit := strings.TrimSpace(in.Unit); unit != "" {
		supply.Unit = unit
	}
	if in.Cost != nil {
		if in.Cost.IsNegative() {
			return models.Supply{}, apperror.NewValidation("cost must not be negative")
		}
		supply.Cost = in.Cost
	}
	if !in.Date.IsZero() {
		supply.Date = models.DayOf(in.Date)
	}

	if err := s.repo.ReplaceSupply(ctx, supply); err != nil {
		return models.Supply{}, writeError(err, "replace", "supply", id)
	}
	return supply, nil
}

// DeleteSupply removes a supply.
func (s *Service) DeleteSupply(ctx context.Context, actor access.Actor, id string) error {
	if err := actor.Require(access.DeleteSupply); err != nil {
		return err
	}
	if err := s.repo.DeleteSupply(ctx, id); err != nil {
		return writeError(err, "delete", "supply", id)
	}
	s.logger.Info("supply deleted", zap.String("supply_id", id), zap.String("user_id", actor.UserID))
	return nil
}
