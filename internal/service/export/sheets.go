// Package export mirrors sales and payments into a spreadsheet for the farm
// owner. The mirror is best effort: rows are queued and written in the
// background, and failures are only logged.
package export

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/domain/models"
)

const (
	SalesRange    = "Sales!A:J"
	PaymentsRange = "Payments!A:E"

	salesHeaderRange    = "Sales!A1:J1"
	paymentsHeaderRange = "Payments!A1:E1"

	writeTimeout = 15 * time.Second
)

var (
	salesHeader    = []interface{}{"Sale ID", "Date", "Batch ID", "Customer ID", "Classification", "Quantity", "Unit price", "Payment type", "Total", "Sold by"}
	paymentsHeader = []interface{}{"Payment ID", "Sale ID", "Paid at", "Amount", "Kind"}
)

// Sheet is the spreadsheet the mirror writes to.
type Sheet interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

type job struct {
	sheetRange  string
	headerRange string
	header      []interface{}
	row         []interface{}
}

// Mirror appends one row per registered sale and per recorded payment.
type Mirror struct {
	sheet  Sheet
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	jobs   chan job
	done   chan struct{}

	headers map[string]bool
}

// NewMirror creates a mirror queueing at most buffer rows.
func NewMirror(sheet Sheet, logger *zap.Logger, buffer int) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer < 1 {
		buffer = 64
	}
	return &Mirror{
		sheet:   sheet,
		logger:  logger,
		jobs:    make(chan job, buffer),
		done:    make(chan struct{}),
		headers: map[string]bool{},
	}
}

// SaleRegistered queues the sale row.
func (m *Mirror) SaleRegistered(_ context.Context, sale models.Sale) {
	m.enqueue(job{
		sheetRange:  SalesRange,
		headerRange: salesHeaderRange,
		header:      salesHeader,
		row:         SaleRow(sale),
	})
}

// PaymentRecorded queues the payment row.
func (m *Mirror) PaymentRecorded(_ context.Context, _ models.Sale, payment models.Payment) {
	m.enqueue(job{
		sheetRange:  PaymentsRange,
		headerRange: paymentsHeaderRange,
		header:      paymentsHeader,
		row:         PaymentRow(payment),
	})
}

// Run writes queued rows until Close is called or ctx ends. Rows already
// queued when either happens are still written, each bounded by its own
// write timeout. Run must be called at most once.
func (m *Mirror) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			m.drain()
			return
		case j, ok := <-m.jobs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				m.write(context.Background(), j)
				continue
			}
			m.write(ctx, j)
		}
	}
}

// drain writes what is left in the queue after the run context ended.
func (m *Mirror) drain() {
	for {
		select {
		case j, ok := <-m.jobs:
			if !ok {
				return
			}
			m.write(context.Background(), j)
		default:
			return
		}
	}
}

// Close stops accepting rows.
func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.jobs)
	}
}

// Wait blocks until Run has returned or ctx ends.
func (m *Mirror) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mirror) enqueue(j job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.jobs <- j:
	default:
		m.logger.Warn("export queue full, dropping row", zap.String("range", j.sheetRange), zap.Any("id", j.row[0]))
	}
}

func (m *Mirror) write(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	rows := [][]interface{}{j.row}
	if !m.headers[j.sheetRange] {
		existing, err := m.sheet.ReadRange(ctx, j.headerRange)
		if err != nil {
			m.logger.Error("failed to read sheet header", zap.String("range", j.headerRange), zap.Error(err))
			return
		}
		if len(existing) == 0 {
			rows = [][]interface{}{j.header, j.row}
		}
		m.headers[j.sheetRange] = true
	}

	if err := m.sheet.AppendRows(ctx, j.sheetRange, rows); err != nil {
		m.logger.Error("failed to export row", zap.String("range", j.sheetRange), zap.Any("id", j.row[0]), zap.Error(err))
		return
	}
	m.logger.Debug("row exported", zap.String("range", j.sheetRange), zap.Any("id", j.row[0]))
}

// SaleRow is the spreadsheet row of a sale.
func SaleRow(sale models.Sale) []interface{} {
	return []interface{}{
		sale.ID,
		sale.Date.Format(time.DateOnly),
		sale.HenBatchID,
		sale.CustomerID,
		sale.Classification,
		sale.Quantity,
		sale.UnitPrice.String(),
		string(sale.PaymentType),
		sale.Total.String(),
		sale.SoldByID,
	}
}

// PaymentRow is the spreadsheet row of a payment.
func PaymentRow(payment models.Payment) []interface{} {
	kind := payment.Kind
	if kind == "" {
		kind = models.PaymentKindPayment
	}
	return []interface{}{
		payment.ID,
		payment.SaleID,
		payment.PaidAt.Format(time.RFC3339),
		payment.Amount.String(),
		string(kind),
	}
}
