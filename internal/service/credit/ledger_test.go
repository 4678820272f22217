package credit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository/memory"
)

var cashier = access.NewActor("u1", "cashier", nil, []string{
	access.RegisterPayment, access.CancelCredit, access.ViewCredits,
})

var clock = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSale(id, customerID, qty int, price string, pt models.PaymentType) models.Sale {
	s := models.Sale{
		ID:             fmt.Sprintf("s%d", id),
		HenBatchID:     "b1",
		CustomerID:     fmt.Sprintf("c%d", customerID),
		Date:           clock.AddDate(0, 0, -id),
		Classification: "Large",
		Quantity:       qty,
		UnitPrice:      dec(price),
		PaymentType:    pt,
	}
	s.OpenLedger(clock)
	return s
}

func newLedger(t *testing.T, repo Repository, opts Options) *Ledger {
	t.Helper()
	l := NewLedger(repo, opts, nil)
	var tick int64
	l.now = func() time.Time { return clock.Add(time.Duration(atomic.AddInt64(&tick, 1)) * time.Minute) }
	var n int64
	l.newID = func() string { return fmt.Sprintf("p%03d", atomic.AddInt64(&n, 1)) }
	return l
}

func seededStore(t *testing.T, sales ...models.Sale) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.InsertUser(ctx, models.User{ID: "u1", UserName: "cashier", IsActive: true}))
	require.NoError(t, store.InsertCustomer(ctx, models.Customer{ID: "c1", Name: "Mariama", IsActive: true}))
	require.NoError(t, store.InsertCustomer(ctx, models.Customer{ID: "c2", Name: "Ibrahima", IsActive: true}))
	for _, s := range sales {
		require.NoError(t, store.InsertSale(ctx, s))
	}
	return store
}

func TestApplyPayment_PartialThenFull(t *testing.T) {
	store := seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit))
	ledger := newLedger(t, store, Options{})
	ctx := context.Background()

	res, err := ledger.ApplyPayment(ctx, cashier, "s1", dec("30.00"))
	require.NoError(t, err)
	assert.True(t, res.Sale.PendingAmount.Equal(dec("50.00")))
	assert.True(t, res.Sale.AmountPaid.Equal(dec("30.00")))
	assert.Equal(t, models.CreditPending, res.Sale.CreditStatus)
	assert.Nil(t, res.Sale.PaidAt)
	assert.Equal(t, "u1", res.Payment.PaidByID)
	assert.Equal(t, models.PaymentKindPayment, res.Payment.Kind)

	res, err = ledger.ApplyPayment(ctx, cashier, "s1", dec("50.00"))
	require.NoError(t, err)
	assert.True(t, res.Sale.PendingAmount.IsZero())
	assert.Equal(t, models.CreditSettled, res.Sale.CreditStatus)
	require.NotNil(t, res.Sale.PaidAt)

	stored, err := store.FindSale(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, stored.CheckLedger())
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, models.CreditSettled, stored.CreditStatus)

	history, err := ledger.PaymentHistory(ctx, cashier, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Amount.Equal(dec("50")))
	assert.True(t, history[1].Amount.Equal(dec("30")))
	assert.Equal(t, "cashier", history[0].PaidByName)
}

func TestApplyPayment_Rejections(t *testing.T) {
	settled := newSale(3, 1, 10, "1", models.PaymentCredit)
	_, err := settled.ForceSettle(clock)
	require.NoError(t, err)

	tests := []struct {
		name    string
		saleID  string
		amount  string
		code    string
		message string
	}{
		{name: "zero amount on missing sale", saleID: "missing", amount: "0", code: apperror.CodeInvalidOperation, message: "amount must be positive"},
		{name: "negative amount", saleID: "s1", amount: "-5", code: apperror.CodeInvalidOperation, message: "amount must be positive"},
		{name: "missing sale", saleID: "missing", amount: "5", code: apperror.CodeNotFound, message: "sale not found"},
		{name: "cash sale", saleID: "s2", amount: "5", code: apperror.CodeInvalidOperation, message: "not a credit sale"},
		{name: "already settled", saleID: "s3", amount: "5", code: apperror.CodeInvalidOperation, message: "already settled"},
		{name: "overpayment", saleID: "s1", amount: "80.01", code: apperror.CodeInvalidOperation, message: "overpayment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t,
				newSale(1, 1, 40, "2.00", models.PaymentCredit),
				newSale(2, 1, 10, "2.00", models.PaymentCash),
				settled,
			)
			ledger := newLedger(t, store, Options{})
			ctx := context.Background()

			var before models.Sale
			if tt.saleID != "missing" {
				found, err := store.FindSale(ctx, tt.saleID)
				require.NoError(t, err)
				before = found
			}

			_, err := ledger.ApplyPayment(ctx, cashier, tt.saleID, dec(tt.amount))
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)

			if tt.saleID != "missing" {
				after, err := store.FindSale(ctx, tt.saleID)
				require.NoError(t, err)
				assert.Equal(t, before, after)
				payments, err := store.ListPayments(ctx, tt.saleID)
				require.NoError(t, err)
				assert.Empty(t, payments)
			}
		})
	}
}

func TestApplyPayment_RequiresPermission(t *testing.T) {
	store := seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit))
	ledger := newLedger(t, store, Options{})
	viewer := access.NewActor("u9", "viewer", nil, []string{access.ViewCredits})

	_, err := ledger.ApplyPayment(context.Background(), viewer, "s1", dec("1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = ledger.CancelCredit(context.Background(), viewer, "s1")
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestApplyPayment_ConcurrentPaymentsNeverLoseUpdates(t *testing.T) {
	store := seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit))
	ledger := newLedger(t, store, Options{})

	var (
		wg       sync.WaitGroup
		accepted int64
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.ApplyPayment(context.Background(), cashier, "s1", dec("4")); err == nil {
				atomic.AddInt64(&accepted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), accepted)
	sale, err := store.FindSale(context.Background(), "s1")
	require.NoError(t, err)
	require.NoError(t, sale.CheckLedger())
	assert.True(t, sale.PendingAmount.IsZero())

	payments, err := store.ListPayments(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, payments, 20)
}

// racingStore lets another writer slip a payment in before each of the
// ledger's writes.
type racingStore struct {
	*memory.Store
	races int
	alt   int
}

func (r *racingStore) RecordPayment(ctx context.Context, sale models.Sale, expected int64, payment models.Payment) error {
	if r.races > 0 {
		r.races--
		r.alt++
		current, err := r.Store.FindSale(ctx, sale.ID)
		if err != nil {
			return err
		}
		prev := current.Version
		if err := current.ApplyPayment(dec("10"), clock); err != nil {
			return err
		}
		current.Version++
		if err := r.Store.RecordPayment(ctx, current, prev, models.Payment{ID: fmt.Sprintf("other-%d", r.alt), SaleID: sale.ID, Amount: dec("10")}); err != nil {
			return err
		}
	}
	return r.Store.RecordPayment(ctx, sale, expected, payment)
}

func TestApplyPayment_RetriesAfterConcurrentWrite(t *testing.T) {
	repo := &racingStore{Store: seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit)), races: 1}
	ledger := newLedger(t, repo, Options{MaxRetries: 3})

	res, err := ledger.ApplyPayment(context.Background(), cashier, "s1", dec("30"))
	require.NoError(t, err)
	assert.True(t, res.Sale.AmountPaid.Equal(dec("40")))
	assert.True(t, res.Sale.PendingAmount.Equal(dec("40")))
	assert.Equal(t, int64(2), res.Sale.Version)
}

func TestApplyPayment_RevalidatesAfterConcurrentWrite(t *testing.T) {
	repo := &racingStore{Store: seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit)), races: 1}
	ledger := newLedger(t, repo, Options{MaxRetries: 3})

	_, err := ledger.ApplyPayment(context.Background(), cashier, "s1", dec("75"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "overpayment", appErr.Message)

	sale, err := repo.FindSale(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sale.PendingAmount.Equal(dec("70")))
}

func TestApplyPayment_GivesUpAfterMaxRetries(t *testing.T) {
	repo := &racingStore{Store: seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit)), races: 10}
	ledger := newLedger(t, repo, Options{MaxRetries: 2})

	_, err := ledger.ApplyPayment(context.Background(), cashier, "s1", dec("1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
	assert.Equal(t, 409, apperror.GetHTTPStatus(err))
	assert.Equal(t, 8, repo.races)
}

func TestCancelCredit_DriftsFromHistoryByDefault(t *testing.T) {
	store := seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit))
	ledger := newLedger(t, store, Options{})
	ctx := context.Background()

	_, err := ledger.ApplyPayment(ctx, cashier, "s1", dec("20"))
	require.NoError(t, err)

	sale, err := ledger.CancelCredit(ctx, cashier, "s1")
	require.NoError(t, err)
	assert.True(t, sale.AmountPaid.Equal(dec("80")))
	assert.True(t, sale.PendingAmount.IsZero())
	assert.Equal(t, models.CreditSettled, sale.CreditStatus)
	require.NotNil(t, sale.PaidAt)
	require.NoError(t, sale.CheckLedger())

	history, err := ledger.PaymentHistory(ctx, cashier, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Amount.Equal(dec("20")))

	_, err = ledger.ApplyPayment(ctx, cashier, "s1", dec("1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidOperation))
}

func TestCancelCredit_ReconcilesWhenEnabled(t *testing.T) {
	store := seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit))
	ledger := newLedger(t, store, Options{ReconcileCancel: true})
	ctx := context.Background()

	_, err := ledger.ApplyPayment(ctx, cashier, "s1", dec("20"))
	require.NoError(t, err)
	_, err = ledger.CancelCredit(ctx, cashier, "s1")
	require.NoError(t, err)

	history, err := ledger.PaymentHistory(ctx, cashier, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.PaymentKindCancellation, history[0].Kind)
	assert.True(t, history[0].Amount.Equal(dec("60")))

	total := decimal.Zero
	for _, p := range history {
		total = total.Add(p.Amount)
	}
	assert.True(t, total.Equal(dec("80")))
}

func TestCancelCredit_Rejections(t *testing.T) {
	store := seededStore(t, newSale(2, 1, 10, "2.00", models.PaymentCash))
	ledger := newLedger(t, store, Options{})

	_, err := ledger.CancelCredit(context.Background(), cashier, "missing")
	assert.True(t, apperror.IsNotFound(err))

	_, err = ledger.CancelCredit(context.Background(), cashier, "s2")
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "not a credit sale", appErr.Message)
}

func TestPaymentHistory(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, newSale(1, 1, 40, "2.00", models.PaymentCredit))
	ledger := newLedger(t, store, Options{})

	empty, err := ledger.PaymentHistory(ctx, cashier, "s1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = ledger.PaymentHistory(ctx, cashier, "missing")
	assert.True(t, apperror.IsNotFound(err))

	ghost := access.NewActor("deleted-user", "ghost", nil, []string{access.RegisterPayment})
	_, err = ledger.ApplyPayment(ctx, ghost, "s1", dec("5"))
	require.NoError(t, err)

	first, err := ledger.PaymentHistory(ctx, cashier, "s1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "User", first[0].PaidByName)

	second, err := ledger.PaymentHistory(ctx, cashier, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
