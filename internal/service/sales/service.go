// Package sales registers egg sales against the available stock.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
	"github.com/mamadbah2/henmanager/internal/service/keylock"
)

// Repository is the persistence the registrar needs.
type Repository interface {
	FindBatch(ctx context.Context, id string) (models.Batch, error)
	FindCustomer(ctx context.Context, id string) (models.Customer, error)
	InsertSale(ctx context.Context, sale models.Sale) error
	FindSale(ctx context.Context, id string) (models.Sale, error)
	ListSales(ctx context.Context, filter repository.SaleFilter) ([]models.Sale, error)
	ListUsers(ctx context.Context, ids []string) ([]models.User, error)
	// FindEggTypeByName matches case-insensitively.
	FindEggTypeByName(ctx context.Context, name string) (models.EggType, error)
}

// StockReader reports the stock of a batch classification.
type StockReader interface {
	Level(ctx context.Context, batchID, classification string) (models.StockLevel, error)
}

// Observer is told about every sale once it is stored.
type Observer interface {
	SaleRegistered(ctx context.Context, sale models.Sale)
}

// RegisterInput carries the fields of a new sale.
type RegisterInput struct {
	HenBatchID     string
	CustomerID     string
	Date           time.Time
	Classification string
	Quantity       int
	UnitPrice      decimal.Decimal
	PaymentType    models.PaymentType
}

// Filter narrows List.
type Filter struct {
	BatchID     string
	CustomerID  string
	PaymentType models.PaymentType
	From        time.Time
	To          time.Time
}

// SaleView is a sale joined with the names shown in listings.
type SaleView struct {
	models.Sale
	CustomerName string `json:"customerName"`
	SoldByName   string `json:"soldByName"`
}

// Service is the sale registrar.
type Service struct {
	repo      Repository
	stock     StockReader
	locks     *keylock.Locker
	observers []Observer
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the registrar. Observers are optional.
func NewService(repo Repository, stock StockReader, logger *zap.Logger, observers ...Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		stock:     stock,
		locks:     keylock.New(),
		observers: observers,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Register validates and stores a sale. Checks run in a fixed order and the
// first failure wins: batch exists, batch active, customer exists, customer
// active, quantity within available stock.
func (s *Service) Register(ctx context.Context, actor access.Actor, in RegisterInput) (models.Sale, error) {
	if err := actor.Require(access.CreateSale); err != nil {
		return models.Sale{}, err
	}
	in.Classification = strings.TrimSpace(in.Classification)
	if err := validate(in); err != nil {
		return models.Sale{}, err
	}

	batch, err := s.repo.FindBatch(ctx, in.HenBatchID)
	if err != nil {
		return models.Sale{}, referenceError(err, "batch", in.HenBatchID)
	}
	if !batch.IsActive {
		return models.Sale{}, apperror.NewInvalid("batch closed").WithDetail("henBatchId", batch.ID)
	}

	customer, err := s.repo.FindCustomer(ctx, in.CustomerID)
	if err != nil {
		return models.Sale{}, referenceError(err, "customer", in.CustomerID)
	}
	if !customer.IsActive {
		return models.Sale{}, apperror.NewInvalid("customer inactive").WithDetail("customerId", customer.ID)
	}

	eggType, err := s.repo.FindEggTypeByName(ctx, in.Classification)
	if err != nil {
		return models.Sale{}, referenceError(err, "egg type", in.Classification)
	}
	if !eggType.IsActive {
		return models.Sale{}, apperror.NewInvalid("egg type inactive").WithDetail("classification", eggType.Name)
	}
	// stock and production are keyed by the catalogue spelling
	in.Classification = eggType.Name

	unlock := s.locks.Lock(batch.ID + "|" + in.Classification)
	defer unlock()

	level, err := s.stock.Level(ctx, batch.ID, in.Classification)
	if err != nil {
		return models.Sale{}, apperror.NewInternal(err)
	}
	if in.Quantity > level.Available {
		return models.Sale{}, apperror.NewInsufficientStock(in.Classification, in.Quantity, level.Available)
	}

	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	sale := models.Sale{
		ID:             s.newID(),
		HenBatchID:     batch.ID,
		CustomerID:     customer.ID,
		Date:           models.DayOf(date),
		Classification: in.Classification,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		PaymentType:    in.PaymentType,
		SoldByID:       actor.UserID,
		CreatedAt:      now,
	}
	sale.OpenLedger(now)

	if err := s.repo.InsertSale(ctx, sale); err != nil {
		return models.Sale{}, apperror.NewInternal(fmt.Errorf("insert sale: %w", err))
	}

	s.logger.Info("sale registered",
		zap.String("sale_id", sale.ID),
		zap.String("batch_id", sale.HenBatchID),
		zap.String("classification", sale.Classification),
		zap.Int("quantity", sale.Quantity),
		zap.String("payment_type", string(sale.PaymentType)),
		zap.String("total", sale.Total.String()),
		zap.String("user_id", actor.UserID))

	for _, o := range s.observers {
		o.SaleRegistered(ctx, sale)
	}
	return sale, nil
}

func validate(in RegisterInput) error {
	switch {
	case in.HenBatchID == "":
		return apperror.NewValidation("henBatchId is required")
	case in.CustomerID == "":
		return apperror.NewValidation("customerId is required")
	case in.Classification == "":
		return apperror.NewValidation("classification is required")
	case in.Quantity <= 0:
		return apperror.NewValidation("quantity must be positive")
	case in.UnitPrice.IsNegative():
		return apperror.NewValidation("unitPrice must not be negative")
	case !in.PaymentType.Valid():
		return apperror.NewValidation("paymentType must be Cash or Credit").WithDetail("paymentType", in.PaymentType)
	}
	return nil
}

// referenceError turns a lookup failure on an id taken from the request body
// into the error reported to the caller.
func referenceError(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewMissingReference(entity, id)
	}
	return apperror.NewInternal(fmt.Errorf("load %s %s: %w", entity, id, err))
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (SaleView, error) {
	if err := actor.Require(access.ViewSales); err != nil {
		return SaleView{}, err
	}
	sale, err := s.repo.FindSale(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SaleView{}, apperror.NewNotFound("sale", id)
		}
		return SaleView{}, apperror.NewInternal(err)
	}
	views, err := s.join(ctx, []models.Sale{sale})
	if err != nil {
		return SaleView{}, err
	}
	return views[0], nil
}

// List returns sales newest first with seller and customer names.
func (s *Service) List(ctx context.Context, actor access.Actor, filter Filter) ([]SaleView, error) {
	if err := actor.Require(access.ViewSales); err != nil {
		return nil, err
	}
	if filter.PaymentType != "" && !filter.PaymentType.Valid() {
		return nil, apperror.NewValidation("paymentType must be Cash or Credit")
	}
	list, err := s.repo.ListSales(ctx, repository.SaleFilter{
		BatchID:     filter.BatchID,
		CustomerID:  filter.CustomerID,
		PaymentType: filter.PaymentType,
		From:        filter.From,
		To:          filter.To,
	})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list sales: %w", err))
	}
	return s.join(ctx, list)
}

func (s *Service) join(ctx context.Context, list []models.Sale) ([]SaleView, error) {
	userIDs := make([]string, 0)
	seenUser := map[string]bool{}
	for _, sale := range list {
		if sale.SoldByID != "" && !seenUser[sale.SoldByID] {
			seenUser[sale.SoldByID] = true
			userIDs = append(userIDs, sale.SoldByID)
		}
	}

	users, err := s.repo.ListUsers(ctx, userIDs)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("load sellers: %w", err))
	}
	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.UserName
	}

	customerNames := map[string]string{}
	views := make([]SaleView, 0, len(list))
	for _, sale := range list {
		name, ok := customerNames[sale.CustomerID]
		if !ok {
			customer, err := s.repo.FindCustomer(ctx, sale.CustomerID)
			switch {
			case err == nil:
				name = customer.Name
			case errors.Is(err, repository.ErrNotFound):
				name = ""
			default:
				return nil, apperror.NewInternal(fmt.Errorf("load customer %s: %w", sale.CustomerID, err))
			}
			customerNames[sale.CustomerID] = name
		}
		views = append(views, SaleView{Sale: sale, CustomerName: name, SoldByName: userNames[sale.SoldByID]})
	}
	return views, nil
}
