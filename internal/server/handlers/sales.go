package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/service/credit"
	"github.com/mamadbah2/henmanager/internal/service/sales"
	"github.com/mamadbah2/henmanager/internal/service/stock"
)

// SaleHandler serves stock levels, sales and the sale-scoped payment routes.
type SaleHandler struct {
	sales  *sales.Service
	stock  *stock.Calculator
	ledger *credit.Ledger
	logger *zap.Logger
}

// NewSaleHandler constructs the sale handler.
func NewSaleHandler(svc *sales.Service, calc *stock.Calculator, ledger *credit.Ledger, logger *zap.Logger) *SaleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleHandler{sales: svc, stock: calc, ledger: ledger, logger: logger}
}

type saleRequest struct {
	HenBatchID     string             `json:"henBatchId"`
	CustomerID     string             `json:"customerId"`
	Date           *Day               `json:"date"`
	Classification string             `json:"classification"`
	Quantity       int                `json:"quantity"`
	UnitPrice      decimal.Decimal    `json:"unitPrice"`
	PaymentType    models.PaymentType `json:"paymentType"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Stock lists available eggs per classification for ?henBatchId=.
func (h *SaleHandler) Stock(c *gin.Context) {
	levels, err := h.stock.ByBatch(c.Request.Context(), actor(c), c.Query("henBatchId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, levels)
}

// Create registers a sale.
func (h *SaleHandler) Create(c *gin.Context) {
	var req saleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.sales.Register(c.Request.Context(), actor(c), sales.RegisterInput{
		HenBatchID:     req.HenBatchID,
		CustomerID:     req.CustomerID,
		Date:           req.Date.value(),
		Classification: req.Classification,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		PaymentType:    req.PaymentType,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sale)
}

// List returns sales joined with customer and seller names.
func (h *SaleHandler) List(c *gin.Context) {
	from, valid := queryDay(c, "from")
	if !valid {
		return
	}
	to, valid := queryDay(c, "to")
	if !valid {
		return
	}

	list, err := h.sales.List(c.Request.Context(), actor(c), sales.Filter{
		BatchID:     c.Query("henBatchId"),
		CustomerID:  c.Query("customerId"),
		PaymentType: models.PaymentType(c.Query("paymentType")),
		From:        from,
		To:          to,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// Get returns one sale.
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.sales.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sale)
}

// Credits lists credit sales, pending ones only unless ?all=true.
func (h *SaleHandler) Credits(c *gin.Context) {
	list, err := h.ledger.ListCredits(c.Request.Context(), actor(c), credit.Filter{
		CustomerID:  c.Query("customerId"),
		BatchID:     c.Query("henBatchId"),
		PendingOnly: !queryBool(c, "all"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// AddPayment applies a payment and answers with the new balances.
func (h *SaleHandler) AddPayment(c *gin.Context) {
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.ledger.ApplyPayment(c.Request.Context(), actor(c), c.Param("id"), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"message":       "payment registered",
		"saleId":        res.Sale.ID,
		"paymentId":     res.Payment.ID,
		"amountPaid":    res.Sale.AmountPaid,
		"pendingAmount": res.Sale.PendingAmount,
		"creditStatus":  res.Sale.CreditStatus,
	})
}
