// Package credit applies payments to credit sales and reports outstanding debt.
package credit

import (
	"context"
	"errors"
	"fmt"
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

// Repository is the persistence the ledger needs.
type Repository interface {
	FindSale(ctx context.Context, id string) (models.Sale, error)
	ListSales(ctx context.Context, filter repository.SaleFilter) ([]models.Sale, error)
	UpdateSaleLedger(ctx context.Context, sale models.Sale, expectedVersion int64) error
	RecordPayment(ctx context.Context, sale models.Sale, expectedVersion int64, payment models.Payment) error
	ListPayments(ctx context.Context, saleID string) ([]models.Payment, error)
	ListUsers(ctx context.Context, ids []string) ([]models.User, error)
	FindCustomer(ctx context.Context, id string) (models.Customer, error)
}

// Observer is told about every stored payment, cancellation entries included.
type Observer interface {
	PaymentRecorded(ctx context.Context, sale models.Sale, payment models.Payment)
}

// Options tune the ledger.
type Options struct {
	// ReconcileCancel makes CancelCredit append a cancellation entry for the
	// written-off amount, keeping the payment log equal to AmountPaid.
	ReconcileCancel bool
	// MaxRetries bounds the attempts made when the sale changed between read
	// and write.
	MaxRetries int
}

// PaymentResult is the sale after a payment together with the new entry.
type PaymentResult struct {
	Sale    models.Sale    `json:"sale"`
	Payment models.Payment `json:"payment"`
}

// Ledger owns every write to the ledger fields of a sale.
type Ledger struct {
	repo      Repository
	opts      Options
	locks     *keylock.Locker
	observers []Observer
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewLedger wires the credit ledger.
func NewLedger(repo Repository, opts Options, logger *zap.Logger, observers ...Observer) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	return &Ledger{
		repo:      repo,
		opts:      opts,
		locks:     keylock.New(),
		observers: observers,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// ApplyPayment records amount against a credit sale. The ledger update and
// the payment entry are written together, conditioned on the sale version
// that was read; a concurrent change triggers a re-read and re-validation.
func (l *Ledger) ApplyPayment(ctx context.Context, actor access.Actor, saleID string, amount decimal.Decimal) (PaymentResult, error) {
	if err := actor.Require(access.RegisterPayment); err != nil {
		return PaymentResult{}, err
	}
	if !amount.IsPositive() {
		return PaymentResult{}, ledgerError(models.ErrNonPositiveAmount, models.Sale{})
	}

	unlock := l.locks.Lock(saleID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		sale, err := l.loadSale(ctx, saleID)
		if err != nil {
			return PaymentResult{}, err
		}

		expected := sale.Version
		now := l.now()
		if err := sale.ApplyPayment(amount, now); err != nil {
			return PaymentResult{}, ledgerError(err, sale)
		}
		sale.Version = expected + 1

		payment := models.Payment{
			ID:       l.newID(),
			SaleID:   sale.ID,
			Amount:   amount,
			PaidAt:   now,
			PaidByID: actor.UserID,
			Kind:     models.PaymentKindPayment,
		}

		err = l.repo.RecordPayment(ctx, sale, expected, payment)
		if err == nil {
			l.logger.Info("payment applied",
				zap.String("sale_id", sale.ID),
				zap.String("payment_id", payment.ID),
				zap.String("amount", amount.String()),
				zap.String("pending", sale.PendingAmount.String()),
				zap.String("status", string(sale.CreditStatus)),
				zap.String("user_id", actor.UserID))
			l.notify(ctx, sale, payment)
			return PaymentResult{Sale: sale, Payment: payment}, nil
		}

		if retry, err := l.retryable(err, saleID, attempt); !retry {
			return PaymentResult{}, err
		}
	}
}

// CancelCredit writes off the pending balance of a credit sale. Unless
// ReconcileCancel is set no payment entry is created, so the history then
// under-reports AmountPaid by the written-off amount.
func (l *Ledger) CancelCredit(ctx context.Context, actor access.Actor, saleID string) (models.Sale, error) {
	if err := actor.Require(access.CancelCredit); err != nil {
		return models.Sale{}, err
	}

	unlock := l.locks.Lock(saleID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		sale, err := l.loadSale(ctx, saleID)
		if err != nil {
			return models.Sale{}, err
		}

		expected := sale.Version
		now := l.now()
		outstanding, err := sale.ForceSettle(now)
		if err != nil {
			return models.Sale{}, ledgerError(err, sale)
		}
		sale.Version = expected + 1

		var entry *models.Payment
		if l.opts.ReconcileCancel && outstanding.IsPositive() {
			entry = &models.Payment{
				ID:       l.newID(),
				SaleID:   sale.ID,
				Amount:   outstanding,
				PaidAt:   now,
				PaidByID: actor.UserID,
				Kind:     models.PaymentKindCancellation,
			}
			err = l.repo.RecordPayment(ctx, sale, expected, *entry)
		} else {
			err = l.repo.UpdateSaleLedger(ctx, sale, expected)
		}

		if err == nil {
			l.logger.Info("credit cancelled",
				zap.String("sale_id", sale.ID),
				zap.String("written_off", outstanding.String()),
				zap.Bool("reconciled", entry != nil),
				zap.String("user_id", actor.UserID))
			if entry != nil {
				l.notify(ctx, sale, *entry)
			}
			return sale, nil
		}

		if retry, err := l.retryable(err, saleID, attempt); !retry {
			return models.Sale{}, err
		}
	}
}

func (l *Ledger) loadSale(ctx context.Context, id string) (models.Sale, error) {
	sale, err := l.repo.FindSale(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Sale{}, apperror.NewNotFound("sale", id)
		}
		return models.Sale{}, apperror.NewInternal(fmt.Errorf("load sale %s: %w", id, err))
	}
	return sale, nil
}

// retryable decides whether a failed write is attempted again and, if not,
// which error the caller receives.
func (l *Ledger) retryable(err error, saleID string, attempt int) (bool, error) {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		if attempt < l.opts.MaxRetries {
			l.logger.Debug("sale changed concurrently, retrying",
				zap.String("sale_id", saleID),
				zap.Int("attempt", attempt))
			return true, nil
		}
		l.logger.Warn("giving up on concurrently modified sale",
			zap.String("sale_id", saleID),
			zap.Int("attempts", attempt))
		return false, apperror.NewConcurrentModification("sale", saleID).WithCause(err)
	case errors.Is(err, repository.ErrNotFound):
		return false, apperror.NewNotFound("sale", saleID)
	default:
		return false, apperror.NewInternal(fmt.Errorf("write ledger of sale %s: %w", saleID, err))
	}
}

func (l *Ledger) notify(ctx context.Context, sale models.Sale, payment models.Payment) {
	for _, o := range l.observers {
		o.PaymentRecorded(ctx, sale, payment)
	}
}

// ledgerError maps a rejected mutation onto an invalid operation.
func ledgerError(err error, sale models.Sale) error {
	switch {
	case errors.Is(err, models.ErrNonPositiveAmount):
		return apperror.NewInvalid("amount must be positive").WithCause(err)
	case errors.Is(err, models.ErrNotCreditSale):
		return apperror.NewInvalid("not a credit sale").WithCause(err).WithDetail("saleId", sale.ID)
	case errors.Is(err, models.ErrAlreadySettled):
		return apperror.NewInvalid("already settled").WithCause(err).WithDetail("saleId", sale.ID)
	case errors.Is(err, models.ErrOverpayment):
		return apperror.NewInvalid("overpayment").WithCause(err).
			WithDetail("saleId", sale.ID).
			WithDetail("pendingAmount", sale.PendingAmount.String())
	default:
		return apperror.NewInternal(err)
	}
}
