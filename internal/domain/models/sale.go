package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType tells whether a sale was paid on the spot or on credit.
type PaymentType string

const (
	PaymentCash   PaymentType = "Cash"
	PaymentCredit PaymentType = "Credit"
)

// Valid reports whether p is a known payment type.
func (p PaymentType) Valid() bool {
	return p == PaymentCash || p == PaymentCredit
}

// CreditStatus is the state of a sale's pending balance.
type CreditStatus string

const (
	CreditPending CreditStatus = "Pending"
	CreditSettled CreditStatus = "Settled"
)

// Ledger errors raised by Sale mutations.
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrNotCreditSale     = errors.New("not a credit sale")
	ErrAlreadySettled    = errors.New("already settled")
	ErrOverpayment       = errors.New("overpayment")
)

// Sale records eggs sold to a customer. AmountPaid, PendingAmount,
// CreditStatus and PaidAt form the ledger fields; they only change through
// ApplyPayment and ForceSettle.
type Sale struct {
	ID             string          `bson:"_id" json:"id"`
	HenBatchID     string          `bson:"henBatchId" json:"henBatchId"`
	CustomerID     string          `bson:"customerId" json:"customerId"`
	Date           time.Time       `bson:"date" json:"date"`
	Classification string          `bson:"classification,omitempty" json:"classification,omitempty"`
	Quantity       int             `bson:"quantity" json:"quantity"`
	UnitPrice      decimal.Decimal `bson:"unitPrice" json:"unitPrice"`
	PaymentType    PaymentType     `bson:"paymentType" json:"paymentType"`
	Total          decimal.Decimal `bson:"total" json:"total"`
	AmountPaid     decimal.Decimal `bson:"amountPaid" json:"amountPaid"`
	PendingAmount  decimal.Decimal `bson:"pendingAmount" json:"pendingAmount"`
	CreditStatus   CreditStatus    `bson:"creditStatus" json:"creditStatus"`
	PaidAt         *time.Time      `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	SoldByID       string          `bson:"soldById" json:"soldById"`
	CreatedAt      time.Time       `bson:"createdAt" json:"createdAt"`
	Version        int64           `bson:"version" json:"version"`
}

// OpenLedger computes the total and sets the initial ledger state: cash sales
// start settled, credit sales start with the whole total pending.
func (s *Sale) OpenLedger(now time.Time) {
	s.Total = s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
	if s.PaymentType == PaymentCredit {
		s.CreditStatus = CreditPending
		s.AmountPaid = decimal.Zero
		s.PendingAmount = s.Total
		s.PaidAt = nil
		return
	}
	s.CreditStatus = CreditSettled
	s.AmountPaid = s.Total
	s.PendingAmount = decimal.Zero
	paidAt := now
	s.PaidAt = &paidAt
}

// ApplyPayment moves amount from the pending balance to the paid one.
func (s *Sale) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if s.PaymentType != PaymentCredit {
		return ErrNotCreditSale
	}
	if !s.PendingAmount.IsPositive() {
		return ErrAlreadySettled
	}
	if amount.GreaterThan(s.PendingAmount) {
		return ErrOverpayment
	}

	s.AmountPaid = s.AmountPaid.Add(amount)
	s.PendingAmount = s.PendingAmount.Sub(amount)
	if s.PendingAmount.IsZero() {
		s.CreditStatus = CreditSettled
		paidAt := at
		s.PaidAt = &paidAt
	} else {
		s.CreditStatus = CreditPending
		s.PaidAt = nil
	}
	return nil
}

// ForceSettle writes off the pending balance as paid and returns the amount
// that was still outstanding.
func (s *Sale) ForceSettle(at time.Time) (decimal.Decimal, error) {
	if s.PaymentType != PaymentCredit {
		return decimal.Zero, ErrNotCreditSale
	}
	outstanding := s.PendingAmount
	s.CreditStatus = CreditSettled
	s.PendingAmount = decimal.Zero
	s.AmountPaid = s.Total
	paidAt := at
	s.PaidAt = &paidAt
	return outstanding, nil
}

// CheckLedger verifies the ledger invariants.
func (s Sale) CheckLedger() error {
	if !s.AmountPaid.Add(s.PendingAmount).Equal(s.Total) {
		return fmt.Errorf("sale %s: paid %s + pending %s != total %s", s.ID, s.AmountPaid, s.PendingAmount, s.Total)
	}
	if s.PendingAmount.IsNegative() {
		return fmt.Errorf("sale %s: negative pending amount %s", s.ID, s.PendingAmount)
	}
	if (s.CreditStatus == CreditSettled) != s.PendingAmount.IsZero() {
		return fmt.Errorf("sale %s: status %s with pending amount %s", s.ID, s.CreditStatus, s.PendingAmount)
	}
	return nil
}

// PaymentKind distinguishes regular payments from cancellation write-offs.
type PaymentKind string

const (
	PaymentKindPayment      PaymentKind = "payment"
	PaymentKindCancellation PaymentKind = "cancellation"
)

// Payment is one append-only ledger entry against a credit sale.
type Payment struct {
	ID       string          `bson:"_id" json:"id"`
	SaleID   string          `bson:"saleId" json:"saleId"`
	Amount   decimal.Decimal `bson:"amount" json:"amount"`
	PaidAt   time.Time       `bson:"paidAt" json:"paidAt"`
	PaidByID string          `bson:"paidById" json:"paidById"`
	Kind     PaymentKind     `bson:"kind" json:"kind"`
}
