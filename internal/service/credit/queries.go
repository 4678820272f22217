package credit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

const (
	unknownUser     = "User"
	unknownCustomer = "Customer"
)

// PaymentView is a payment entry with the name of the staff member who took it.
type PaymentView struct {
	ID         string             `json:"id"`
	Amount     decimal.Decimal    `json:"amount"`
	PaidAt     time.Time          `json:"paidAt"`
	PaidByName string             `json:"paidByName"`
	Kind       models.PaymentKind `json:"kind"`
}

// Filter narrows ListCredits.
type Filter struct {
	CustomerID  string
	BatchID     string
	PendingOnly bool
}

// Summary aggregates every credit sale.
type Summary struct {
	TotalDebt            decimal.Decimal `json:"totalDebt"`
	TotalPaid            decimal.Decimal `json:"totalPaid"`
	TotalPending         decimal.Decimal `json:"totalPending"`
	CountCustomersInDebt int             `json:"countCustomersInDebt"`
}

// CreditSale is the per-sale line of a CustomerDebt.
type CreditSale struct {
	SaleID        string              `json:"saleId"`
	Date          time.Time           `json:"date"`
	Total         decimal.Decimal     `json:"total"`
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	PendingAmount decimal.Decimal     `json:"pendingAmount"`
	CreditStatus  models.CreditStatus `json:"creditStatus"`
}

// CustomerDebt totals the credit sales of one customer.
type CustomerDebt struct {
	CustomerID   string          `json:"customerId"`
	CustomerName string          `json:"customerName"`
	TotalDebt    decimal.Decimal `json:"totalDebt"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	TotalPending decimal.Decimal `json:"totalPending"`
	Sales        []CreditSale    `json:"sales"`
}

// PaymentHistory lists the payments of a sale newest first. A sale without
// payments yields an empty list.
func (l *Ledger) PaymentHistory(ctx context.Context, actor access.Actor, saleID string) ([]PaymentView, error) {
	if err := actor.Require(access.ViewCredits); err != nil {
		return nil, err
	}
	if _, err := l.loadSale(ctx, saleID); err != nil {
		return nil, err
	}

	payments, err := l.repo.ListPayments(ctx, saleID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list payments of sale %s: %w", saleID, err))
	}
	if len(payments) == 0 {
		return []PaymentView{}, nil
	}

	var ids []string
	seen := map[string]bool{}
	for _, p := range payments {
		if p.PaidByID != "" && !seen[p.PaidByID] {
			seen[p.PaidByID] = true
			ids = append(ids, p.PaidByID)
		}
	}
	names := map[string]string{}
	if len(ids) > 0 {
		users, err := l.repo.ListUsers(ctx, ids)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("load payers: %w", err))
		}
		for _, u := range users {
			names[u.ID] = u.UserName
		}
	}

	views := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		name, ok := names[p.PaidByID]
		if !ok {
			name = unknownUser
		}
		kind := p.Kind
		if kind == "" {
			kind = models.PaymentKindPayment
		}
		views = append(views, PaymentView{ID: p.ID, Amount: p.Amount, PaidAt: p.PaidAt, PaidByName: name, Kind: kind})
	}
	return views, nil
}

// ListCredits returns credit sales newest first.
func (l *Ledger) ListCredits(ctx context.Context, actor access.Actor, filter Filter) ([]models.Sale, error) {
	if err := actor.Require(access.ViewCredits); err != nil {
		return nil, err
	}
	list, err := l.repo.ListSales(ctx, repository.SaleFilter{
		CustomerID:  filter.CustomerID,
		BatchID:     filter.BatchID,
		PaymentType: models.PaymentCredit,
		PendingOnly: filter.PendingOnly,
	})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list credits: %w", err))
	}
	return list, nil
}

// Summary totals every credit sale.
func (l *Ledger) Summary(ctx context.Context, actor access.Actor) (Summary, error) {
	credits, err := l.ListCredits(ctx, actor, Filter{})
	if err != nil {
		return Summary{}, err
	}

	out := Summary{TotalDebt: decimal.Zero, TotalPaid: decimal.Zero, TotalPending: decimal.Zero}
	inDebt := map[string]bool{}
	for _, s := range credits {
		out.TotalDebt = out.TotalDebt.Add(s.Total)
		out.TotalPaid = out.TotalPaid.Add(s.AmountPaid)
		out.TotalPending = out.TotalPending.Add(s.PendingAmount)
		if s.PendingAmount.IsPositive() {
			inDebt[s.CustomerID] = true
		}
	}
	out.CountCustomersInDebt = len(inDebt)
	return out, nil
}

// CustomersInDebt groups the credit sales still pending by customer, largest
// pending balance first.
func (l *Ledger) CustomersInDebt(ctx context.Context, actor access.Actor) ([]CustomerDebt, error) {
	credits, err := l.ListCredits(ctx, actor, Filter{PendingOnly: true})
	if err != nil {
		return nil, err
	}

	var order []string
	groups := map[string][]models.Sale{}
	for _, s := range credits {
		if _, ok := groups[s.CustomerID]; !ok {
			order = append(order, s.CustomerID)
		}
		groups[s.CustomerID] = append(groups[s.CustomerID], s)
	}

	out := make([]CustomerDebt, 0, len(order))
	for _, customerID := range order {
		debt, err := l.customerDebt(ctx, customerID, groups[customerID])
		if err != nil {
			return nil, err
		}
		out = append(out, debt)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPending.GreaterThan(out[j].TotalPending)
	})
	return out, nil
}

// CustomerDebt totals every credit sale of one customer, settled ones
// included. A customer without credit sales is reported as not found.
func (l *Ledger) CustomerDebt(ctx context.Context, actor access.Actor, customerID string) (CustomerDebt, error) {
	credits, err := l.ListCredits(ctx, actor, Filter{CustomerID: customerID})
	if err != nil {
		return CustomerDebt{}, err
	}
	if len(credits) == 0 {
		return CustomerDebt{}, apperror.NewNotFound("customer credit", customerID)
	}
	return l.customerDebt(ctx, customerID, credits)
}

func (l *Ledger) customerDebt(ctx context.Context, customerID string, sales []models.Sale) (CustomerDebt, error) {
	name := unknownCustomer
	customer, err := l.repo.FindCustomer(ctx, customerID)
	switch {
	case err == nil:
		name = customer.Name
	case !errors.Is(err, repository.ErrNotFound):
		return CustomerDebt{}, apperror.NewInternal(fmt.Errorf("load customer %s: %w", customerID, err))
	}

	debt := CustomerDebt{
		CustomerID:   customerID,
		CustomerName: name,
		TotalDebt:    decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
		Sales:        make([]CreditSale, 0, len(sales)),
	}
	for _, s := range sales {
		debt.TotalDebt = debt.TotalDebt.Add(s.Total)
		debt.TotalPaid = debt.TotalPaid.Add(s.AmountPaid)
		debt.TotalPending = debt.TotalPending.Add(s.PendingAmount)
		debt.Sales = append(debt.Sales, CreditSale{
			SaleID:        s.ID,
			Date:          s.Date,
			Total:         s.Total,
			AmountPaid:    s.AmountPaid,
			PendingAmount: s.PendingAmount,
			CreditStatus:  s.CreditStatus,
		})
	}
	return debt, nil
}
