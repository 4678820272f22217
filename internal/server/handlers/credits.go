package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/service/credit"
)

// CreditHandler serves the credit ledger.
type CreditHandler struct {
	ledger *credit.Ledger
	logger *zap.Logger
}

// NewCreditHandler constructs the credit handler.
func NewCreditHandler(ledger *credit.Ledger, logger *zap.Logger) *CreditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditHandler{ledger: ledger, logger: logger}
}

// List returns credit sales. ?pendingOnly=true drops settled ones.
func (h *CreditHandler) List(c *gin.Context) {
	list, err := h.ledger.ListCredits(c.Request.Context(), actor(c), credit.Filter{
		CustomerID:  c.Query("customerId"),
		BatchID:     c.Query("henBatchId"),
		PendingOnly: queryBool(c, "pendingOnly"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// Pay applies a payment and returns the updated sale.
func (h *CreditHandler) Pay(c *gin.Context) {
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.ledger.ApplyPayment(c.Request.Context(), actor(c), c.Param("id"), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res.Sale)
}

// Cancel force-settles a credit sale.
func (h *CreditHandler) Cancel(c *gin.Context) {
	sale, err := h.ledger.CancelCredit(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sale)
}

// Payments returns the payment history of a sale, newest first.
func (h *CreditHandler) Payments(c *gin.Context) {
	history, err := h.ledger.PaymentHistory(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, history)
}

// Summary returns the aggregate credit totals.
func (h *CreditHandler) Summary(c *gin.Context) {
	summary, err := h.ledger.Summary(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, summary)
}

// Customers returns the per-customer debt breakdown.
func (h *CreditHandler) Customers(c *gin.Context) {
	list, err := h.ledger.CustomersInDebt(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// Customer returns the debt of one customer.
func (h *CreditHandler) Customer(c *gin.Context) {
	debt, err := h.ledger.CustomerDebt(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, debt)
}
