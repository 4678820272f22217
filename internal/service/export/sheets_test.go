package export

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/internal/domain/models"
)

type fakeSheet struct {
	mu       sync.Mutex
	appended map[string][][]interface{}
	existing map[string][][]interface{}
	fail     bool
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{appended: map[string][][]interface{}{}, existing: map[string][][]interface{}{}}
}

func (f *fakeSheet) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("quota exceeded")
	}
	f.appended[sheetRange] = append(f.appended[sheetRange], rows...)
	return nil
}

func (f *fakeSheet) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[sheetRange], nil
}

func runMirror(t *testing.T, sheet Sheet, feed func(m *Mirror)) {
	t.Helper()
	m := NewMirror(sheet, nil, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(context.Background())
	}()
	feed(m)
	m.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("mirror did not drain")
	}
}

func testSale() models.Sale {
	s := models.Sale{
		ID:             "sale-1",
		HenBatchID:     "b1",
		CustomerID:     "c1",
		Date:           time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Classification: "Large",
		Quantity:       30,
		UnitPrice:      decimal.RequireFromString("1.50"),
		PaymentType:    models.PaymentCredit,
		SoldByID:       "u1",
	}
	s.OpenLedger(s.Date)
	return s
}

func TestMirror_WritesHeaderOnceThenRows(t *testing.T) {
	sheet := newFakeSheet()
	sale := testSale()
	payment := models.Payment{ID: "pay-1", SaleID: sale.ID, Amount: decimal.RequireFromString("10"), PaidAt: time.Date(2026, 5, 5, 9, 0, 0, 0, time.UTC)}

	runMirror(t, sheet, func(m *Mirror) {
		m.SaleRegistered(context.Background(), sale)
		m.SaleRegistered(context.Background(), sale)
		m.PaymentRecorded(context.Background(), sale, payment)
	})

	sales := sheet.appended[SalesRange]
	require.Len(t, sales, 3)
	assert.Equal(t, salesHeader, sales[0])
	assert.Equal(t, []interface{}{"sale-1", "2026-05-04", "b1", "c1", "Large", 30, "1.5", "Credit", "45", "u1"}, sales[1])

	payments := sheet.appended[PaymentsRange]
	require.Len(t, payments, 2)
	assert.Equal(t, []interface{}{"pay-1", "sale-1", "2026-05-05T09:00:00Z", "10", "payment"}, payments[1])
}

func TestMirror_SkipsExistingHeader(t *testing.T) {
	sheet := newFakeSheet()
	sheet.existing[salesHeaderRange] = [][]interface{}{salesHeader}

	runMirror(t, sheet, func(m *Mirror) {
		m.SaleRegistered(context.Background(), testSale())
	})

	require.Len(t, sheet.appended[SalesRange], 1)
	assert.Equal(t, "sale-1", sheet.appended[SalesRange][0][0])
}

func TestMirror_FailuresAreSwallowed(t *testing.T) {
	sheet := newFakeSheet()
	sheet.fail = true

	runMirror(t, sheet, func(m *Mirror) {
		m.SaleRegistered(context.Background(), testSale())
	})
	assert.Empty(t, sheet.appended)
}

func TestMirror_DrainsQueueAfterContextEnds(t *testing.T) {
	sheet := newFakeSheet()
	m := NewMirror(sheet, nil, 16)
	m.SaleRegistered(context.Background(), testSale())
	m.SaleRegistered(context.Background(), testSale())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go m.Run(ctx)
	m.Close()

	waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, m.Wait(waitCtx))

	sales := sheet.appended[SalesRange]
	require.Len(t, sales, 3)
	assert.Equal(t, salesHeader, sales[0])
}

func TestMirror_WaitHonoursContext(t *testing.T) {
	m := NewMirror(newFakeSheet(), nil, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.Canceled)
}

func TestMirror_IgnoresRowsAfterClose(t *testing.T) {
	m := NewMirror(newFakeSheet(), nil, 1)
	m.Close()
	m.Close()
	assert.NotPanics(t, func() { m.SaleRegistered(context.Background(), testSale()) })
}
