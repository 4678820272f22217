package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

func (s *Store) InsertBatch(_ context.Context, batch models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; ok {
		return duplicate("batch", "id", batch.ID)
	}
	s.batches[batch.ID] = batch
	return nil
}

func (s *Store) FindBatch(_ context.Context, id string) (models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[id]
	if !ok {
		return models.Batch{}, notFound("batch", id)
	}
	return batch, nil
}

func (s *Store) ListBatches(context.Context) ([]models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) ReplaceBatch(_ context.Context, batch models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; !ok {
		return notFound("batch", batch.ID)
	}
	s.batches[batch.ID] = batch
	return nil
}

func (s *Store) InsertEggType(_ context.Context, eggType models.EggType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.eggTypes {
		if strings.EqualFold(existing.Name, eggType.Name) {
			return duplicate("egg type", "name", eggType.Name)
		}
	}
	s.eggTypes[eggType.ID] = eggType
	return nil
}

func (s *Store) FindEggType(_ context.Context, id string) (models.EggType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eggType, ok := s.eggTypes[id]
	if !ok {
		return models.EggType{}, notFound("egg type", id)
	}
	return eggType, nil
}

func (s *Store) FindEggTypeByName(_ context.Context, name string) (models.EggType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, eggType := range s.eggTypes {
		if strings.EqualFold(eggType.Name, name) {
			return eggType, nil
		}
	}
	return models.EggType{}, notFound("egg type", name)
}

func (s *Store) ListEggTypes(_ context.Context, activeOnly bool) ([]models.EggType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.EggType, 0, len(s.eggTypes))
	for _, e := range s.eggTypes {
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) ReplaceEggType(_ context.Context, eggType models.EggType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.eggTypes[eggType.ID]; !ok {
		return notFound("egg type", eggType.ID)
	}
	for id, existing := range s.eggTypes {
		if id != eggType.ID && strings.EqualFold(existing.Name, eggType.Name) {
			return duplicate("egg type", "name", eggType.Name)
		}
	}
	s.eggTypes[eggType.ID] = eggType
	return nil
}

func (s *Store) CountEggTypes(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.eggTypes)), nil
}

func (s *Store) InsertProduction(_ context.Context, production models.EggProduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productions[production.ID]; ok {
		return duplicate("production", "id", production.ID)
	}
	s.productions[production.ID] = production
	return nil
}

func (s *Store) FindProduction(_ context.Context, id string) (models.EggProduction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	production, ok := s.productions[id]
	if !ok {
		return models.EggProduction{}, notFound("production", id)
	}
	return production, nil
}

func (s *Store) ListProductions(_ context.Context, filter repository.ProductionFilter) ([]models.EggProduction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.EggProduction, 0)
	for _, p := range s.productions {
		if filter.BatchID != "" && p.HenBatchID != filter.BatchID {
			continue
		}
		if !repository.InRange(p.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ReplaceProduction(_ context.Context, production models.EggProduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productions[production.ID]; !ok {
		return notFound("production", production.ID)
	}
	s.productions[production.ID] = production
	return nil
}

func (s *Store) DeleteProduction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productions[id]; !ok {
		return notFound("production", id)
	}
	delete(s.productions, id)
	return nil
}

func (s *Store) ProducedByClassification(_ context.Context, batchID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := map[string]int{}
	for _, p := range s.productions {
		if p.HenBatchID != batchID || p.Classification == "" {
			continue
		}
		totals[p.Classification] += p.Quantity
	}
	return totals, nil
}

func (s *Store) InsertCustomer(_ context.Context, customer models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customer.ID]; ok {
		return duplicate("customer", "id", customer.ID)
	}
	s.customers[customer.ID] = customer
	return nil
}

func (s *Store) FindCustomer(_ context.Context, id string) (models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[id]
	if !ok {
		return models.Customer{}, notFound("customer", id)
	}
	return customer, nil
}

func (s *Store) ListCustomers(_ context.Context, filter repository.CustomerFilter) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if filter.ActiveOnly && !c.IsActive {
			continue
		}
		if needle != "" && !containsFold(c.Name, needle) && !containsFold(c.Phone, needle) && !containsFold(c.Email, needle) {
			continue
		}
		out = append(out, c)
	}
	sortByName(out, func(c models.Customer) string { return c.Name })
	return out, nil
}

func (s *Store) ReplaceCustomer(_ context.Context, customer models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customer.ID]; !ok {
		return notFound("customer", customer.ID)
	}
	s.customers[customer.ID] = customer
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return notFound("customer", id)
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) InsertSupply(_ context.Context, supply models.Supply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.supplies[supply.ID]; ok {
		return duplicate("supply", "id", supply.ID)
	}
	s.supplies[supply.ID] = supply
	return nil
}

func (s *Store) FindSupply(_ context.Context, id string) (models.Supply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	supply, ok := s.supplies[id]
	if !ok {
		return models.Supply{}, notFound("supply", id)
	}
	return supply, nil
}

func (s *Store) ListSupplies(_ context.Context, filter repository.SupplyFilter) ([]models.Supply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Supply, 0, len(s.supplies))
	for _, sp := range s.supplies {
		if filter.BatchID != "" && sp.HenBatchID != filter.BatchID {
			continue
		}
		if !repository.InRange(sp.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ReplaceSupply(_ context.Context, supply models.Supply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.supplies[supply.ID]; !ok {
		return notFound("supply", supply.ID)
	}
	s.supplies[supply.ID] = supply
	return nil
}

func (s *Store) DeleteSupply(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.supplies[id]; !ok {
		return notFound("supply", id)
	}
	delete(s.supplies, id)
	return nil
}
