package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

func (s *Store) InsertSale(_ context.Context, sale models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[sale.ID]; ok {
		return duplicate("sale", "id", sale.ID)
	}
	s.sales[sale.ID] = sale
	return nil
}

func (s *Store) FindSale(_ context.Context, id string) (models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[id]
	if !ok {
		return models.Sale{}, notFound("sale", id)
	}
	return sale, nil
}

func (s *Store) ListSales(_ context.Context, filter repository.SaleFilter) ([]models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if filter.BatchID != "" && sale.HenBatchID != filter.BatchID {
			continue
		}
		if filter.CustomerID != "" && sale.CustomerID != filter.CustomerID {
			continue
		}
		if filter.PaymentType != "" && sale.PaymentType != filter.PaymentType {
			continue
		}
		if filter.PendingOnly && !sale.PendingAmount.IsPositive() {
			continue
		}
		if !repository.InRange(sale.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) SoldByClassification(_ context.Context, batchID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := map[string]int{}
	for _, sale := range s.sales {
		if sale.HenBatchID != batchID || sale.Classification == "" {
			continue
		}
		totals[sale.Classification] += sale.Quantity
	}
	return totals, nil
}

func (s *Store) UpdateSaleLedger(_ context.Context, sale models.Sale, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLedgerLocked(sale, expectedVersion)
}

func (s *Store) RecordPayment(_ context.Context, sale models.Sale, expectedVersion int64, payment models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateLedgerLocked(sale, expectedVersion); err != nil {
		return err
	}
	s.payments[payment.SaleID] = append(s.payments[payment.SaleID], payment)
	return nil
}

func (s *Store) updateLedgerLocked(sale models.Sale, expectedVersion int64) error {
	stored, ok := s.sales[sale.ID]
	if !ok {
		return notFound("sale", sale.ID)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("sale %s at version %d, expected %d: %w", sale.ID, stored.Version, expectedVersion, repository.ErrVersionConflict)
	}
	stored.AmountPaid = sale.AmountPaid
	stored.PendingAmount = sale.PendingAmount
	stored.CreditStatus = sale.CreditStatus
	stored.PaidAt = sale.PaidAt
	stored.Version = sale.Version
	s.sales[sale.ID] = stored
	return nil
}

func (s *Store) ListPayments(_ context.Context, saleID string) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Payment(nil), s.payments[saleID]...)
	if out == nil {
		out = []models.Payment{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.After(out[j].PaidAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
