package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/service/farm"
)

// FarmHandler serves batches, productions, customers, egg types and supplies.
type FarmHandler struct {
	svc    *farm.Service
	logger *zap.Logger
}

// NewFarmHandler constructs the farm handler.
func NewFarmHandler(svc *farm.Service, logger *zap.Logger) *FarmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmHandler{svc: svc, logger: logger}
}

type batchRequest struct {
	Name      *string `json:"name"`
	StartDate *Day    `json:"startDate"`
	HensCount int     `json:"hensCount"`
	Notes     *string `json:"notes"`
}

type productionRequest struct {
	HenBatchID     string `json:"henBatchId"`
	Date           *Day   `json:"date"`
	Classification string `json:"classification"`
	Quantity       int    `json:"quantity"`
}

type customerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	IsActive *bool  `json:"isActive"`
}

type eggTypeRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsActive     *bool  `json:"isActive"`
	DisplayOrder int    `json:"displayOrder"`
}

type supplyRequest struct {
	HenBatchID string           `json:"henBatchId"`
	Date       *Day             `json:"date"`
	Name       string           `json:"name"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Unit       string           `json:"unit"`
	Cost       *decimal.Decimal `json:"cost"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListBatches returns every batch, newest first.
func (h *FarmHandler) ListBatches(c *gin.Context) {
	list, err := h.svc.ListBatches(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *FarmHandler) GetBatch(c *gin.Context) {
	batch, err := h.svc.GetBatch(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, batch)
}

func (h *FarmHandler) CreateBatch(c *gin.Context) {
	var req batchRequest
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.svc.CreateBatch(c.Request.Context(), actor(c), farm.BatchInput{
		Name:      deref(req.Name),
		StartDate: req.StartDate.value(),
		HensCount: req.HensCount,
		Notes:     deref(req.Notes),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, batch)
}

func (h *FarmHandler) UpdateBatch(c *gin.Context) {
	var req batchRequest
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.svc.UpdateBatch(c.Request.Context(), actor(c), c.Param("id"), farm.BatchUpdate{
		Name:      req.Name,
		StartDate: req.StartDate.value(),
		HensCount: req.HensCount,
		Notes:     req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, batch)
}

// CloseBatch ends a batch.
func (h *FarmHandler) CloseBatch(c *gin.Context) {
	batch, err := h.svc.CloseBatch(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, batch)
}

// ListProductions accepts henBatchId, from and to.
func (h *FarmHandler) ListProductions(c *gin.Context) {
	from, valid := queryDay(c, "from")
	if !valid {
		return
	}
	to, valid := queryDay(c, "to")
	if !valid {
		return
	}
	list, err := h.svc.ListProductions(c.Request.Context(), actor(c), farm.ProductionFilter{
		BatchID: c.Query("henBatchId"),
		From:    from,
		To:      to,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *FarmHandler) CreateProduction(c *gin.Context) {
	var req productionRequest
	if !bindJSON(c, &req) {
		return
	}
	production, err := h.svc.RegisterProduction(c.Request.Context(), actor(c), farm.ProductionInput{
		HenBatchID:     req.HenBatchID,
		Date:           req.Date.value(),
		Classification: req.Classification,
		Quantity:       req.Quantity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, production)
}

func (h *FarmHandler) UpdateProduction(c *gin.Context) {
	var req productionRequest
	if !bindJSON(c, &req) {
		return
	}
	production, err := h.svc.UpdateProduction(c.Request.Context(), actor(c), c.Param("id"), farm.ProductionInput{
		HenBatchID:     req.HenBatchID,
		Date:           req.Date.value(),
		Classification: req.Classification,
		Quantity:       req.Quantity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, production)
}

func (h *FarmHandler) DeleteProduction(c *gin.Context) {
	if err := h.svc.DeleteProduction(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": "production deleted"})
}

// ListCustomers accepts activeOnly and search.
func (h *FarmHandler) ListCustomers(c *gin.Context) {
	list, err := h.svc.ListCustomers(c.Request.Context(), actor(c), farm.CustomerFilter{
		ActiveOnly: queryBool(c, "activeOnly"),
		Search:     c.Query("search"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *FarmHandler) GetCustomer(c *gin.Context) {
	customer, err := h.svc.GetCustomer(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, customer)
}

func (h *FarmHandler) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.svc.CreateCustomer(c.Request.Context(), actor(c), farm.CustomerInput(req))
	if err != nil {
		fail(c, err)
		return
	}
	created(c, customer)
}

func (h *FarmHandler) UpdateCustomer(c *gin.Context) {
	var req customerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.svc.UpdateCustomer(c.Request.Context(), actor(c), c.Param("id"), farm.CustomerInput(req))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, customer)
}

func (h *FarmHandler) DeleteCustomer(c *gin.Context) {
	if err := h.svc.DeleteCustomer(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// ListEggTypes accepts activeOnly.
func (h *FarmHandler) ListEggTypes(c *gin.Context) {
	list, err := h.svc.ListEggTypes(c.Request.Context(), actor(c), queryBool(c, "activeOnly"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *FarmHandler) GetEggType(c *gin.Context) {
	eggType, err := h.svc.GetEggType(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, eggType)
}

func (h *FarmHandler) CreateEggType(c *gin.Context) {
	var req eggTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	eggType, err := h.svc.CreateEggType(c.Request.Context(), actor(c), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	created(c, eggType)
}

func (h *FarmHandler) UpdateEggType(c *gin.Context) {
	var req eggTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	eggType, err := h.svc.UpdateEggType(c.Request.Context(), actor(c), c.Param("id"), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, eggType)
}

// DeleteEggType deactivates the entry.
func (h *FarmHandler) DeleteEggType(c *gin.Context) {
	if err := h.svc.DeleteEggType(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": "egg type deactivated"})
}

// input treats a missing isActive as true.
func (r eggTypeRequest) input() farm.EggTypeInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return farm.EggTypeInput{
		Name:         r.Name,
		Description:  r.Description,
		IsActive:     active,
		DisplayOrder: r.DisplayOrder,
	}
}

// ListSupplies accepts henBatchId.
func (h *FarmHandler) ListSupplies(c *gin.Context) {
	list, err := h.svc.ListSupplies(c.Request.Context(), actor(c), c.Query("henBatchId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *FarmHandler) CreateSupply(c *gin.Context) {
	var req supplyRequest
	if !bindJSON(c, &req) {
		return
	}
	supply, err := h.svc.CreateSupply(c.Request.Context(), actor(c), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, supply)
}

func (h *FarmHandler) UpdateSupply(c *gin.Context) {
	var req supplyRequest
	if !bindJSON(c, &req) {
		return
	}
	supply, err := h.svc.UpdateSupply(c.Request.Context(), actor(c), c.Param("id"), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, supply)
}

func (h *FarmHandler) DeleteSupply(c *gin.Context) {
	if err := h.svc.DeleteSupply(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": "supply deleted"})
}

func (r supplyRequest) input() farm.SupplyInput {
	return farm.SupplyInput{
		HenBatchID: r.HenBatchID,
		Date:       r.Date.value(),
		Name:       r.Name,
		Quantity:   r.Quantity,
		Unit:       r.Unit,
		Cost:       r.Cost,
	}
}
