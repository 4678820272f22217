// Package stock derives egg availability from production and sales totals.
package stock

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
)

// Repository is the read side the calculator needs.
type Repository interface {
	ProducedByClassification(ctx context.Context, batchID string) (map[string]int, error)
	SoldByClassification(ctx context.Context, batchID string) (map[string]int, error)
	ListEggTypes(ctx context.Context, activeOnly bool) ([]models.EggType, error)
}

// Available is produced minus sold, never below zero.
func Available(produced, sold int) int {
	if available := produced - sold; available > 0 {
		return available
	}
	return 0
}

// Calculator computes stock levels. Every sale counts as sold from the moment
// it is registered, whatever its payment state.
type Calculator struct {
	repo   Repository
	logger *zap.Logger
}

// NewCalculator wires a stock calculator.
func NewCalculator(repo Repository, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{repo: repo, logger: logger}
}

// Level returns the stock of one classification of a batch.
func (c *Calculator) Level(ctx context.Context, batchID, classification string) (models.StockLevel, error) {
	produced, sold, err := c.totals(ctx, batchID)
	if err != nil {
		return models.StockLevel{}, err
	}
	return level(classification, produced, sold), nil
}

// ByBatch lists the stock of a batch for every catalogue classification,
// followed by classifications only found in recorded data.
func (c *Calculator) ByBatch(ctx context.Context, actor access.Actor, batchID string) ([]models.StockLevel, error) {
	if err := actor.Require(access.ViewSales); err != nil {
		return nil, err
	}
	if batchID == "" {
		return nil, apperror.NewValidation("henBatchId is required")
	}

	produced, sold, err := c.totals(ctx, batchID)
	if err != nil {
		return nil, err
	}

	eggTypes, err := c.repo.ListEggTypes(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list egg types: %w", err)
	}

	seen := make(map[string]bool, len(eggTypes))
	levels := make([]models.StockLevel, 0, len(eggTypes))
	for _, et := range eggTypes {
		seen[et.Name] = true
		levels = append(levels, level(et.Name, produced, sold))
	}

	var extra []string
	for _, totals := range []map[string]int{produced, sold} {
		for classification := range totals {
			if !seen[classification] {
				seen[classification] = true
				extra = append(extra, classification)
			}
		}
	}
	sort.Strings(extra)
	for _, classification := range extra {
		levels = append(levels, level(classification, produced, sold))
	}

	return levels, nil
}

func (c *Calculator) totals(ctx context.Context, batchID string) (produced, sold map[string]int, err error) {
	produced, err = c.repo.ProducedByClassification(ctx, batchID)
	if err != nil {
		return nil, nil, fmt.Errorf("sum production of batch %s: %w", batchID, err)
	}
	sold, err = c.repo.SoldByClassification(ctx, batchID)
	if err != nil {
		return nil, nil, fmt.Errorf("sum sales of batch %s: %w", batchID, err)
	}
	return produced, sold, nil
}

func level(classification string, produced, sold map[string]int) models.StockLevel {
	p, s := produced[classification], sold[classification]
	return models.StockLevel{
		Classification: classification,
		Available:      Available(p, s),
		Produced:       p,
		Sold:           s,
	}
}
